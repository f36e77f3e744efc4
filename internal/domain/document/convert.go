package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/surfcat/gasdb/internal/domain"
)

// FromAny converts a plain Go value into a Value.
func FromAny(raw any) (Value, error) {
	return fromAny("", raw)
}

func fromAny(path string, raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, domain.NewUnhashableValue(path, fmt.Sprintf("invalid number %q", string(v)))
		}
		return Number(f), nil
	case []string:
		s := make(Seq, len(v))
		for i, e := range v {
			s[i] = String(e)
		}
		return s, nil
	case []float64:
		s := make(Seq, len(v))
		for i, e := range v {
			s[i] = Number(e)
		}
		return s, nil
	case []int:
		s := make(Seq, len(v))
		for i, e := range v {
			s[i] = Number(float64(e))
		}
		return s, nil
	case []any:
		s := make(Seq, len(v))
		for i, e := range v {
			ev, err := fromAny(path+"["+strconv.Itoa(i)+"]", e)
			if err != nil {
				return nil, err
			}
			s[i] = ev
		}
		return s, nil
	case map[string]any:
		m := make(Map, len(v))
		for k, e := range v {
			ev, err := fromAny(joinPath(path, k), e)
			if err != nil {
				return nil, err
			}
			m[k] = ev
		}
		return m, nil
	default:
		return nil, domain.NewUnhashableValue(path, fmt.Sprintf("unsupported type %T", raw))
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// ToAny converts a Value into plain Go values.
func ToAny(v Value) any {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case String:
		return string(x)
	case Seq:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToAny(e)
		}
		return out
	case Map:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes the document as a JSON object with sorted keys.
func (d Document) MarshalJSON() ([]byte, error) {
	for k, v := range d.fields {
		if err := checkFinite(k, v); err != nil {
			return nil, err
		}
	}
	return json.Marshal(d.ToMap())
}

// UnmarshalJSON decodes a JSON object, keeping numbers exact until conversion.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("document must be a JSON object")
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseJSON decodes a single JSON object into a Document.
func ParseJSON(data []byte) (Document, error) {
	var d Document
	if err := d.UnmarshalJSON(data); err != nil {
		return Document{}, err
	}
	return d, nil
}

func checkFinite(path string, v Value) error {
	switch x := v.(type) {
	case Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.NewUnhashableValue(path, "non-finite number")
		}
	case Seq:
		for i, e := range x {
			if err := checkFinite(path+"["+strconv.Itoa(i)+"]", e); err != nil {
				return err
			}
		}
	case Map:
		for k, e := range x {
			if err := checkFinite(joinPath(path, k), e); err != nil {
				return err
			}
		}
	}
	return nil
}
