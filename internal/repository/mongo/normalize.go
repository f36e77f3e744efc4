package mongo

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
)

// toDocument converts a decoded BSON document into a domain Document.
func toDocument(raw bson.M) (document.Document, error) {
	plain, err := normalize("", raw)
	if err != nil {
		return document.Document{}, err
	}
	return document.FromMap(plain.(map[string]any))
}

// normalize rewrites BSON-specific types into the plain values document.FromAny
// accepts. ObjectIDs become hex strings and dates become RFC 3339 strings.
func normalize(path string, v any) (any, error) {
	switch x := v.(type) {
	case bson.M:
		return normalizeMap(path, x)
	case map[string]any:
		return normalizeMap(path, x)
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			nv, err := normalize(join(path, e.Key), e.Value)
			if err != nil {
				return nil, err
			}
			m[e.Key] = nv
		}
		return m, nil
	case bson.A:
		return normalizeSlice(path, x)
	case []any:
		return normalizeSlice(path, x)
	case primitive.ObjectID:
		return x.Hex(), nil
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil, domain.NewUnhashableValue(path, fmt.Sprintf("decimal %s", x))
		}
		return f, nil
	case primitive.Null, primitive.Undefined:
		return nil, nil
	case primitive.Symbol:
		return string(x), nil
	default:
		return v, nil
	}
}

func normalizeMap(path string, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, e := range m {
		nv, err := normalize(join(path, k), e)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeSlice(path string, s []any) ([]any, error) {
	out := make([]any, len(s))
	for i, e := range s {
		nv, err := normalize(path+"["+strconv.Itoa(i)+"]", e)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}

func join(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
