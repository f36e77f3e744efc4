// Package validity drops incomplete or malformed documents from fetch results.
package validity

import (
	"strings"

	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
)

// NeighborCoordKey holds "element:coordination" strings. An entry whose
// coordination part is empty marks a broken fingerprint.
const NeighborCoordKey = "neighborcoord"

// Filter returns the documents of docs that are valid against expectedKeys.
// docs is never modified. When nothing survives, the returned warning is non-nil.
func Filter(docs []document.Document, expectedKeys []string) ([]document.Document, *domain.EmptyResultWarning) {
	expected := ExpectedKeys(expectedKeys)
	out := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		if IsValid(d, expected) {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return out, &domain.EmptyResultWarning{Input: len(docs)}
	}
	return out, nil
}

// ExpectedKeys builds the key set used by IsValid. Storage identifier keys are dropped.
func ExpectedKeys(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if domain.IsStorageIDKey(k) {
			continue
		}
		set[k] = struct{}{}
	}
	return set
}

// IsValid reports whether doc holds exactly the expected keys (storage identifiers
// aside), no null or empty-string values, and a well-formed neighborcoord.
func IsValid(doc document.Document, expected map[string]struct{}) bool {
	n := 0
	for _, k := range doc.Keys() {
		if domain.IsStorageIDKey(k) {
			continue
		}
		if _, ok := expected[k]; !ok {
			return false
		}
		n++
		v, _ := doc.Get(k)
		if document.IsNull(v) {
			return false
		}
		if s, ok := v.(document.String); ok && s == "" {
			return false
		}
	}
	if n != len(expected) {
		return false
	}

	if nc, ok := doc.Get(NeighborCoordKey); ok {
		return validNeighborCoord(nc)
	}
	return true
}

func validNeighborCoord(v document.Value) bool {
	seq, ok := v.(document.Seq)
	if !ok {
		return false
	}
	for _, e := range seq {
		s, ok := e.(document.String)
		if !ok {
			return false
		}
		_, coord, found := strings.Cut(string(s), ":")
		if !found || coord == "" {
			return false
		}
	}
	return true
}
