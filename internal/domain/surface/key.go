// Package surface identifies physical surfaces within documents.
package surface

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
)

// Document fields that make up a surface key.
const (
	FieldMaterialID = "mpid"
	FieldMiller     = "miller"
	FieldShift      = "shift"
	FieldTop        = "top"
)

// ShiftDecimals is the precision shifts are rounded to before keying.
const ShiftDecimals = 3

// Key identifies a physical surface. It is comparable and usable as a map key.
type Key struct {
	MaterialID string
	Miller     string
	Shift      float64
	Top        bool
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s shift=%g top=%t", k.MaterialID, k.Miller, k.Shift, k.Top)
}

// FromDocument extracts the surface key of doc.
func FromDocument(doc document.Document) (Key, error) {
	mpid, err := doc.Text(FieldMaterialID)
	if err != nil {
		return Key{}, err
	}
	millerVal, ok := doc.Get(FieldMiller)
	if !ok {
		return Key{}, domain.NewMissingField(FieldMiller)
	}
	miller, err := MillerString(millerVal)
	if err != nil {
		return Key{}, err
	}
	shift, err := doc.Number(FieldShift)
	if err != nil {
		return Key{}, err
	}
	if math.IsInf(shift, 0) {
		return Key{}, domain.NewFieldType(FieldShift, "finite number", "infinity")
	}
	top, err := doc.Bool(FieldTop)
	if err != nil {
		return Key{}, err
	}
	return Key{
		MaterialID: mpid,
		Miller:     miller,
		Shift:      RoundHalfUp(shift, ShiftDecimals),
		Top:        top,
	}, nil
}

// MillerString renders a Miller index field. Strings pass through unchanged;
// sequences of integers render as "[1, 1, 0]".
func MillerString(v document.Value) (string, error) {
	switch m := v.(type) {
	case document.String:
		return string(m), nil
	case document.Seq:
		parts := make([]string, len(m))
		for i, e := range m {
			n, ok := e.(document.Number)
			if !ok {
				return "", domain.NewFieldType(FieldMiller, "sequence of numbers", "sequence of "+document.KindOf(e).String())
			}
			s, ok := document.FormatNumber(float64(n))
			if !ok {
				return "", domain.NewFieldType(FieldMiller, "sequence of numbers", "non-finite number")
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", domain.NewFieldType(FieldMiller, "string or sequence", document.KindOf(v).String())
	}
}

// RoundHalfUp rounds x to decimals places, with halves rounded toward +Inf.
func RoundHalfUp(x float64, decimals int) float64 {
	m := math.Pow(10, float64(decimals))
	return math.Floor(x*m+0.5) / m
}

// Compare orders keys by material, Miller string, shift, then bottom before top.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.MaterialID, b.MaterialID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Miller, b.Miller); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Shift, b.Shift); c != 0 {
		return c
	}
	switch {
	case a.Top == b.Top:
		return 0
	case !a.Top:
		return -1
	default:
		return 1
	}
}

// SortedKeys returns the keys of m ordered by Compare.
func SortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Compare)
	return keys
}
