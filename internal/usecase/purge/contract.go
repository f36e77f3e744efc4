package purge

import (
	"context"

	"github.com/surfcat/gasdb/internal/domain/query"
)

// Defuser cancels FireWorks jobs held in the launchpad collection.
type Defuser interface {
	Defuse(ctx context.Context, collection string, fwids []int) (int64, error)
}

// Deleter removes the documents a spec matches.
type Deleter interface {
	Delete(ctx context.Context, spec query.Spec) (int64, error)
}
