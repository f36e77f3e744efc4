package document

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/surfcat/gasdb/internal/db"
	"github.com/surfcat/gasdb/internal/domain"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/query"
)

func fetchIDs(t *testing.T, repo *Repo, spec query.Spec) []string {
	t.Helper()
	docs, err := repo.Fetch(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, err := d.Text(IDKey)
		if err != nil {
			t.Fatalf("document without id: %v", d.Keys())
		}
		ids = append(ids, id)
	}
	return ids
}

// --- Fetch: match ---

func TestFetch_Match(t *testing.T) {
	tests := []struct {
		name string
		spec query.Spec
		want []string
	}{
		{"all", query.New("ads").MustBuild(), []string{"a1", "a2", "a3"}},
		{"eq", query.New("ads").Where("adsorbate", "CO").MustBuild(), []string{"a1", "a3"}},
		{"in", query.New("ads").WhereIn("adsorbate", "H", "OH").MustBuild(), []string{"a2"}},
		{"nested eq", query.New("ads").Where("processed_data.calculation_info.mpid", "mp-81").MustBuild(), []string{"a2"}},
		{"int matches float", query.New("ads").Where("fwid", 12).MustBuild(), []string{"a2"}},
		{"range", query.New("ads").
			WhereOp("energy", query.OpGt, -0.5).
			WhereOp("energy", query.OpLt, 3.0).MustBuild(), []string{"a2"}},
		{"lte and gte", query.New("ads").
			WhereOp("energy", query.OpGte, -0.61).
			WhereOp("energy", query.OpLte, -0.61).MustBuild(), []string{"a1"}},
		{"exists", query.New("ads").WhereOp("results.forces", query.OpExists, true).MustBuild(), []string{"a1"}},
		{"not exists", query.New("ads").WhereOp("results", query.OpExists, false).MustBuild(), []string{"a2", "a3"}},
		{"array element", query.New("ads").Where("processed_data.calculation_info.miller", 0).MustBuild(), []string{"a2"}},
		{"array index", query.New("ads").Where("dft_settings.kpts.2", 1).MustBuild(), []string{"a1"}},
		{"null matches missing", query.New("ads").Where("results", nil).MustBuild(), []string{"a2", "a3"}},
		{"type bracketing", query.New("ads").WhereOp("adsorbate", query.OpGt, 0).MustBuild(), nil},
		{"string order", query.New("ads").WhereOp("adsorbate", query.OpLt, "D").MustBuild(), []string{"a1", "a3"}},
		{"storage id", query.New("ads").Where("_id", "a3").MustBuild(), []string{"a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) {
				return adsorptionDocs(), nil
			}
			got := fetchIDs(t, repo, tt.spec)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Fetch: projection ---

func TestFetch_Projection(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, collection string) ([]db.RawDocument, error) {
		if collection != "catalog_vasp" {
			t.Errorf("collection = %s", collection)
		}
		return []db.RawDocument{{ID: "c1", Body: []byte(`{
			"mpid": "mp-30", "natoms": 12,
			"predictions": {"adsorption_energy": {"CO": {"model0": [["2019", -0.1], ["2020", -0.4]]}}}
		}`)}}, nil
	}

	spec := query.New("catalog_vasp").
		Project("mongo_id", "_id").
		Project("mpid", "mpid").
		ProjectElem("predictions.CO", "predictions.adsorption_energy.CO.model0", -1, 1).
		Project("missing", "does.not.exist").
		MustBuild()

	docs, err := repo.Fetch(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	want := document.MustFromMap(map[string]any{
		"mongo_id":    "c1",
		"mpid":        "mp-30",
		"predictions": map[string]any{"CO": -0.4},
	})
	if !docs[0].Equal(want) {
		t.Errorf("doc = %v, want %v", docs[0].ToMap(), want.ToMap())
	}
}

func TestProject_ElementOutOfRange(t *testing.T) {
	body := document.Map{"hist": document.Seq{document.Number(1)}}
	out := project(body, []query.Projection{{Field: "x", Path: "hist", Elements: []int{3}}})
	if _, ok := out["x"]; ok {
		t.Errorf("expected x to be omitted, got %v", out)
	}
}

func TestProject_ArrayFanOut(t *testing.T) {
	body := document.Map{"sites": document.Seq{
		document.Map{"e": document.Number(1)},
		document.Map{"e": document.Number(2)},
	}}
	out := project(body, []query.Projection{{Field: "energies", Path: "sites.e"}})
	want := document.Seq{document.Number(1), document.Number(2)}
	if !document.Equal(out["energies"], want) {
		t.Errorf("energies = %v", out["energies"])
	}
}

// --- Fetch: sample, progress, errors ---

func TestFetch_SampleAndProgress(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) {
		return adsorptionDocs(), nil
	}

	var progress []int
	docs, err := repo.Fetch(context.Background(), query.New("ads").Sample(2).MustBuild(),
		func(n int) { progress = append(progress, n) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if !slices.Equal(progress, []int{1, 2}) {
		t.Errorf("progress = %v", progress)
	}
}

func TestFetch_ListError(t *testing.T) {
	repo, ms := newTestRepo(t)
	boom := &db.Error{Op: db.OpScan, Err: errors.New("connection refused")}
	ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) { return nil, boom }

	_, err := repo.Fetch(context.Background(), query.New("ads").MustBuild(), nil)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestFetch_InvalidBody(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) {
		return []db.RawDocument{{ID: "x", Body: []byte(`[1,2]`)}}, nil
	}
	if _, err := repo.Fetch(context.Background(), query.New("ads").MustBuild(), nil); err == nil {
		t.Fatal("expected error for non-object body")
	}
}

// --- Delete ---

func TestDelete_MatchingIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) {
		return adsorptionDocs(), nil
	}
	var deleted []string
	ms.deleteFn = func(_ context.Context, collection string, ids []string) (int64, error) {
		if collection != "ads" {
			t.Errorf("collection = %s", collection)
		}
		deleted = ids
		return int64(len(ids)), nil
	}

	n, err := repo.Delete(context.Background(), query.New("ads").WhereIn("fwid", 11, 13).MustBuild())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || !slices.Equal(deleted, []string{"a1", "a3"}) {
		t.Errorf("deleted %d %v", n, deleted)
	}
}

func TestDelete_NothingMatched(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, _ string) ([]db.RawDocument, error) {
		return adsorptionDocs(), nil
	}
	ms.deleteFn = func(_ context.Context, _ string, _ []string) (int64, error) {
		t.Error("DeleteDocuments should not be called")
		return 0, nil
	}

	n, err := repo.Delete(context.Background(), query.New("ads").Where("fwid", 99).MustBuild())
	if err != nil || n != 0 {
		t.Fatalf("Delete() = %d, %v", n, err)
	}
}

func TestDelete_SampleUnsupported(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Delete(context.Background(), query.New("ads").Sample(1).MustBuild())
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

// --- Put ---

func TestPut(t *testing.T) {
	repo, ms := newTestRepo(t)
	var stored []db.RawDocument
	ms.putFn = func(_ context.Context, collection string, docs []db.RawDocument) error {
		if collection != "atoms" {
			t.Errorf("collection = %s", collection)
		}
		stored = docs
		return nil
	}

	err := repo.Put(context.Background(), "atoms", []document.Document{
		document.MustFromMap(map[string]any{"_id": "5f0c", "fwid": 1}),
		document.MustFromMap(map[string]any{"mongo_id": "6a1d", "fwid": 2}),
		document.MustFromMap(map[string]any{"fwid": 3}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored docs, got %d", len(stored))
	}
	if stored[0].ID != "5f0c" || stored[1].ID != "6a1d" {
		t.Errorf("ids = %s, %s", stored[0].ID, stored[1].ID)
	}
	if len(stored[2].ID) != 36 {
		t.Errorf("expected generated uuid, got %q", stored[2].ID)
	}

	var body map[string]any
	if err := json.Unmarshal(stored[0].Body, &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if _, ok := body[IDKey]; ok {
		t.Error("_id must not be stored in the body")
	}
}
