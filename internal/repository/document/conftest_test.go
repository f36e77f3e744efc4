package document

import (
	"context"
	"testing"

	"github.com/surfcat/gasdb/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	listFn   func(ctx context.Context, collection string) ([]db.RawDocument, error)
	putFn    func(ctx context.Context, collection string, docs []db.RawDocument) error
	deleteFn func(ctx context.Context, collection string, ids []string) (int64, error)
}

func (m *mockStore) ListDocuments(ctx context.Context, collection string) ([]db.RawDocument, error) {
	if m.listFn != nil {
		return m.listFn(ctx, collection)
	}
	return nil, nil
}

func (m *mockStore) PutDocuments(ctx context.Context, collection string, docs []db.RawDocument) error {
	if m.putFn != nil {
		return m.putFn(ctx, collection, docs)
	}
	return nil
}

func (m *mockStore) DeleteDocuments(ctx context.Context, collection string, ids []string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, ids)
	}
	return int64(len(ids)), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	// deterministic sampling: identity permutation
	repo.shuffle = func(n int) []int {
		p := make([]int, n)
		for i := range p {
			p[i] = i
		}
		return p
	}
	return repo, ms
}

// adsorptionDocs is a small adsorption_vasp collection.
func adsorptionDocs() []db.RawDocument {
	return []db.RawDocument{
		{ID: "a1", Body: []byte(`{
			"adsorbate": "CO", "energy": -0.61, "fwid": 11,
			"processed_data": {"calculation_info": {"mpid": "mp-30", "miller": [1, 1, 1]}},
			"results": {"forces": [[0, 0, 0.01]]},
			"dft_settings": {"gga": "RP", "kpts": [4, 4, 1]}
		}`)},
		{ID: "a2", Body: []byte(`{
			"adsorbate": "H", "energy": -0.2, "fwid": 12,
			"processed_data": {"calculation_info": {"mpid": "mp-81", "miller": [1, 0, 0]}},
			"dft_settings": {"gga": "RP"}
		}`)},
		{ID: "a3", Body: []byte(`{
			"adsorbate": "CO", "energy": 3.5, "fwid": 13,
			"processed_data": {"calculation_info": {"mpid": "mp-126", "miller": "[2, 1, 1]"}},
			"dft_settings": {"gga": "PBE"}
		}`)},
	}
}
