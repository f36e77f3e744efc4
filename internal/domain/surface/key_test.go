package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
)

func doc(fields map[string]any) document.Document {
	return document.MustFromMap(fields)
}

func TestFromDocument(t *testing.T) {
	k, err := FromDocument(doc(map[string]any{
		"mpid":   "mp-30",
		"miller": []any{1, 1, 1},
		"shift":  0.12345,
		"top":    true,
		"energy": -1.2,
	}))
	require.NoError(t, err)

	assert.Equal(t, Key{MaterialID: "mp-30", Miller: "[1, 1, 1]", Shift: 0.123, Top: true}, k)
}

func TestFromDocument_ShiftRoundingMergesKeys(t *testing.T) {
	base := map[string]any{"mpid": "mp-1", "miller": "[1, 0, 0]", "top": false}

	a := doc(base).With("shift", document.Number(0.12349))
	b := doc(base).With("shift", document.Number(0.1231))

	ka, err := FromDocument(a)
	require.NoError(t, err)
	kb, err := FromDocument(b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
	assert.Equal(t, "[1, 0, 0]", ka.Miller)
}

func TestFromDocument_Errors(t *testing.T) {
	full := map[string]any{"mpid": "mp-1", "miller": []any{1, 0, 0}, "shift": 0.0, "top": true}

	tests := []struct {
		name    string
		mutate  func(document.Document) document.Document
		wantErr error
		field   string
	}{
		{"missing mpid", func(d document.Document) document.Document { return d.Without("mpid") }, domain.ErrMissingField, "mpid"},
		{"missing miller", func(d document.Document) document.Document { return d.Without("miller") }, domain.ErrMissingField, "miller"},
		{"missing shift", func(d document.Document) document.Document { return d.Without("shift") }, domain.ErrMissingField, "shift"},
		{"missing top", func(d document.Document) document.Document { return d.Without("top") }, domain.ErrMissingField, "top"},
		{"string shift", func(d document.Document) document.Document { return d.With("shift", document.String("0.1")) }, domain.ErrFieldType, "shift"},
		{"numeric top", func(d document.Document) document.Document { return d.With("top", document.Number(1)) }, domain.ErrFieldType, "top"},
		{"map miller", func(d document.Document) document.Document { return d.With("miller", document.Map{}) }, domain.ErrFieldType, "miller"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.mutate(doc(full)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.0005, 0.001},
		{0.0004, 0},
		{0.25, 0.25},
		{-0.0006, -0.001},
		{1.23449, 1.234},
		{2.5, 2.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundHalfUp(tt.in, 3), 1e-12, "RoundHalfUp(%v)", tt.in)
	}
}

func TestCompareAndSortedKeys(t *testing.T) {
	keys := []Key{
		{MaterialID: "mp-2", Miller: "[1, 0, 0]", Shift: 0, Top: true},
		{MaterialID: "mp-1", Miller: "[1, 1, 1]", Shift: 0.5, Top: true},
		{MaterialID: "mp-1", Miller: "[1, 1, 1]", Shift: 0.5, Top: false},
		{MaterialID: "mp-1", Miller: "[1, 0, 0]", Shift: 0.25, Top: true},
	}
	m := make(map[Key]int, len(keys))
	for i, k := range keys {
		m[k] = i + 1
	}

	var order []int
	for _, k := range SortedKeys(m) {
		order = append(order, m[k])
	}
	assert.Equal(t, []int{4, 3, 2, 1}, order)
	assert.Zero(t, Compare(Key{MaterialID: "a"}, Key{MaterialID: "a"}))
}
