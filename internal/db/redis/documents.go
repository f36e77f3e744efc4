package redis

import (
	"context"
	"slices"
	"strings"

	"github.com/surfcat/gasdb/internal/db"
)

const batchSize = 100

// ListDocuments returns every document of collection, ordered by id.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]db.RawDocument, error) {
	prefix := s.collectionPrefix(collection)
	keys, err := s.Scan(ctx, escapeGlob(prefix)+"*")
	if err != nil {
		return nil, err
	}
	// SCAN may return a key more than once
	slices.Sort(keys)
	keys = slices.Compact(keys)

	out := make([]db.RawDocument, 0, len(keys))
	for batch := range slices.Chunk(keys, batchSize) {
		bodies, err := s.JSONGetMulti(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, body := range bodies {
			if body == nil {
				continue
			}
			out = append(out, db.RawDocument{ID: strings.TrimPrefix(batch[i], prefix), Body: body})
		}
	}
	return out, nil
}

// PutDocuments stores docs under collection, replacing documents with the same id.
func (s *Store) PutDocuments(ctx context.Context, collection string, docs []db.RawDocument) error {
	for batch := range slices.Chunk(docs, batchSize) {
		keys := make([]string, len(batch))
		bodies := make([][]byte, len(batch))
		for i, d := range batch {
			keys[i] = s.docKey(collection, d.ID)
			bodies[i] = d.Body
		}
		if err := s.JSONSetMulti(ctx, keys, bodies); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocuments removes the given ids from collection and returns how many existed.
func (s *Store) DeleteDocuments(ctx context.Context, collection string, ids []string) (int64, error) {
	var total int64
	for batch := range slices.Chunk(ids, batchSize) {
		keys := make([]string, len(batch))
		for i, id := range batch {
			keys[i] = s.docKey(collection, id)
		}
		n, err := s.Del(ctx, keys...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// escapeGlob quotes SCAN MATCH metacharacters in a literal prefix.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
