package fingerprint

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
)

// Canonical returns the stable serialization of doc with ignoreKeys and the
// storage identifier keys removed. Unlike Fingerprint, the result is safe to
// persist and compare across processes.
//
// Encoding: compact JSON, object keys sorted bytewise at every depth, strings
// kept byte for byte without HTML escaping, numbers in shortest round-trip
// form. Strings that differ only in Unicode normalization stay distinct.
func Canonical(doc document.Document, ignoreKeys []string) (string, error) {
	b, err := canonicalBytes(doc, ignoreKeys)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func canonicalBytes(doc document.Document, ignoreKeys []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, k := range doc.Keys() {
		if domain.IsStorageIDKey(k) || slices.Contains(ignoreKeys, k) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		v, _ := doc.Get(k)
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, k, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, path string, v document.Value) error {
	switch val := v.(type) {
	case nil, document.Null:
		buf.WriteString("null")
	case document.Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case document.Number:
		s, ok := document.FormatNumber(float64(val))
		if !ok {
			return domain.NewUnhashableValue(path, "non-finite number")
		}
		buf.WriteString(s)
	case document.String:
		return writeString(buf, string(val))
	case document.Seq:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, path+"["+strconv.Itoa(i)+"]", e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case document.Map:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, path+"."+k, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return domain.NewUnhashableValue(path, "unknown value kind")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
