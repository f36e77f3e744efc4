package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	aggregateFn  func(ctx context.Context, tag string, pipeline mongo.Pipeline, each func(bson.M) error) error
	deleteManyFn func(ctx context.Context, tag string, filter bson.M) (int64, error)
}

func (m *mockStore) Aggregate(ctx context.Context, tag string, pipeline mongo.Pipeline, each func(bson.M) error) error {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, tag, pipeline, each)
	}
	return nil
}

func (m *mockStore) DeleteMany(ctx context.Context, tag string, filter bson.M) (int64, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, tag, filter)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

// yield returns an aggregate function that feeds docs to the callback.
func yield(docs ...bson.M) func(context.Context, string, mongo.Pipeline, func(bson.M) error) error {
	return func(_ context.Context, _ string, _ mongo.Pipeline, each func(bson.M) error) error {
		for _, d := range docs {
			if err := each(d); err != nil {
				return err
			}
		}
		return nil
	}
}
