// Package document is the document source over JSON blob stores (Redis,
// Valkey, SQLite snapshots). Stores only list whole collections, so matching,
// sampling, and projection run here.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/surfcat/gasdb/internal/db"
	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

// IDKey is the key the storage id is exposed under, as in MongoDB.
const IDKey = "_id"

// store is the consumer interface for blob stores (ISP).
type store interface {
	ListDocuments(ctx context.Context, collection string) ([]db.RawDocument, error)
	PutDocuments(ctx context.Context, collection string, docs []db.RawDocument) error
	DeleteDocuments(ctx context.Context, collection string, ids []string) (int64, error)
}

// Repo implements the fetch and purge document sources.
type Repo struct {
	store   store
	shuffle func(n int) []int
}

// New creates a blob-store document source.
func New(s store) *Repo {
	return &Repo{store: s, shuffle: rand.Perm}
}

// Fetch evaluates spec against every document in the collection.
func (r *Repo) Fetch(ctx context.Context, spec query.Spec, progress func(fetched int)) ([]document.Document, error) {
	matched, err := r.match(ctx, spec)
	if err != nil {
		return nil, err
	}

	if n := spec.Sample(); n > 0 && n < len(matched) {
		picked := make([]entry, 0, n)
		for _, i := range r.shuffle(len(matched))[:n] {
			picked = append(picked, matched[i])
		}
		matched = picked
	}

	projections := spec.Projections()
	docs := make([]document.Document, 0, len(matched))
	for _, e := range matched {
		out := e.body
		if len(projections) > 0 {
			out = project(e.body, projections)
		}
		docs = append(docs, document.New(out))
		if progress != nil {
			progress(len(docs))
		}
	}
	return docs, nil
}

// Delete removes every document matching spec's conditions.
func (r *Repo) Delete(ctx context.Context, spec query.Spec) (int64, error) {
	if spec.Sample() > 0 {
		return 0, fmt.Errorf("delete with sample: %w", domain.ErrUnsupported)
	}
	matched, err := r.match(ctx, spec)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}
	ids := make([]string, len(matched))
	for i, e := range matched {
		ids[i] = e.id
	}
	n, err := r.store.DeleteDocuments(ctx, spec.Collection(), ids)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", spec.Collection(), err)
	}
	return n, nil
}

// Put stores docs in collection. The storage id comes from _id or mongo_id
// when it is a string; otherwise a new one is generated.
func (r *Repo) Put(ctx context.Context, collection string, docs []document.Document) error {
	raws := make([]db.RawDocument, 0, len(docs))
	for _, d := range docs {
		id := storageID(d)
		body, err := json.Marshal(d.Without(IDKey))
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
		}
		raws = append(raws, db.RawDocument{ID: id, Body: body})
	}
	if err := r.store.PutDocuments(ctx, collection, raws); err != nil {
		return fmt.Errorf("put %s: %w", collection, err)
	}
	return nil
}

type entry struct {
	id   string
	body document.Map
}

func (r *Repo) match(ctx context.Context, spec query.Spec) ([]entry, error) {
	raws, err := r.store.ListDocuments(ctx, spec.Collection())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", spec.Collection(), err)
	}

	conds := spec.Conditions()
	var out []entry
	for _, raw := range raws {
		doc, err := document.ParseJSON(raw.Body)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", spec.Collection(), raw.ID, err)
		}
		body := document.Map(doc.With(IDKey, document.String(raw.ID)).Fields())
		ok, err := matches(body, conds)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", spec.Collection(), err)
		}
		if ok {
			out = append(out, entry{id: raw.ID, body: body})
		}
	}
	return out, nil
}

func storageID(d document.Document) string {
	for _, k := range domain.StorageIDKeys {
		if s, err := d.Text(k); err == nil && s != "" {
			return s
		}
	}
	return uuid.NewString()
}
