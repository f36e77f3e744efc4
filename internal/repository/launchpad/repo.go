// Package launchpad cancels FireWorks jobs by defusing them in the launchpad
// collection.
package launchpad

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// StateDefused is the FireWorks state of a job that will not run.
const StateDefused = "DEFUSED"

// store is the consumer interface for the MongoDB store (ISP).
type store interface {
	UpdateMany(ctx context.Context, tag string, filter, update bson.M) (int64, error)
}

// Repo defuses FireWorks jobs.
type Repo struct {
	store store
}

// New creates a launchpad repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Defuse marks every job of collection in fwids as DEFUSED and returns how
// many changed.
func (r *Repo) Defuse(ctx context.Context, collection string, fwids []int) (int64, error) {
	if len(fwids) == 0 {
		return 0, nil
	}
	n, err := r.store.UpdateMany(ctx, collection,
		bson.M{"fw_id": bson.M{"$in": fwids}},
		bson.M{"$set": bson.M{"state": StateDefused}},
	)
	if err != nil {
		return 0, fmt.Errorf("defuse %d fireworks: %w", len(fwids), err)
	}
	return n, nil
}
