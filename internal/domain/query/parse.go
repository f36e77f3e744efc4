package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// comparators in match order: two-character operators first.
var comparators = []struct {
	token string
	op    Op
}{
	{"<=", OpLte},
	{">=", OpGte},
	{"<", OpLt},
	{">", OpGt},
	{"=", OpEq},
}

// ParseCondition reads "path<op>value" with op one of = < <= > >=. The value
// is decoded as JSON when it parses ("0.5", "true", "[1,1,1]") and is taken
// as a plain string otherwise. "path?" and "!path?" test for presence.
func ParseCondition(s string) (Condition, error) {
	if strings.HasSuffix(s, "?") {
		path := strings.TrimSuffix(s, "?")
		exists := true
		if p, ok := strings.CutPrefix(path, "!"); ok {
			path, exists = p, false
		}
		if path == "" {
			return Condition{}, fmt.Errorf("condition %q: path is required", s)
		}
		return Condition{Path: path, Op: OpExists, Value: exists}, nil
	}

	at, op, width := -1, Op(""), 0
	for _, c := range comparators {
		if i := strings.Index(s, c.token); i >= 0 && (at < 0 || i < at) {
			at, op, width = i, c.op, len(c.token)
		}
	}
	if at < 0 {
		return Condition{}, fmt.Errorf("condition %q: expected path=value, path<value, path<=value, path>value or path>=value", s)
	}
	path := strings.TrimSpace(s[:at])
	if path == "" {
		return Condition{}, fmt.Errorf("condition %q: path is required", s)
	}
	return Condition{Path: path, Op: op, Value: parseValue(strings.TrimSpace(s[at+width:]))}, nil
}

// ParseProjection reads "field=path".
func ParseProjection(s string) (Projection, error) {
	field, path, ok := strings.Cut(s, "=")
	field, path = strings.TrimSpace(field), strings.TrimSpace(path)
	if !ok || field == "" || path == "" {
		return Projection{}, fmt.Errorf("projection %q: expected field=path", s)
	}
	return Projection{Field: field, Path: path}, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
