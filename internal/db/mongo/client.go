// Package mongo is the MongoDB store. Collection tags (adsorption_vasp,
// catalog_qe, atoms, fireworks, ...) resolve to a database and collection
// through Config.Collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/surfcat/gasdb/internal/db"
	"github.com/surfcat/gasdb/internal/domain"
)

const disconnectTimeout = 5 * time.Second

// Namespace locates one collection tag.
type Namespace struct {
	Database   string
	Collection string
}

// Config holds connection parameters.
type Config struct {
	URI string
	// DefaultDatabase serves tags that are missing from Collections; the tag
	// is then used as the collection name. Empty means unknown tags fail.
	DefaultDatabase string
	Collections     map[string]Namespace
}

// Store runs aggregations and bulk writes against mapped collections.
type Store struct {
	client      *mongo.Client
	defaultDB   string
	collections map[string]Namespace
}

// NewStore connects to MongoDB. Connecting is lazy in the driver; use
// WaitForReady to confirm the deployment is reachable.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return NewStoreFromClient(client, cfg), nil
}

// NewStoreFromClient wraps an existing client, e.g. an mtest mock.
func NewStoreFromClient(client *mongo.Client, cfg Config) *Store {
	cols := make(map[string]Namespace, len(cfg.Collections))
	for tag, ns := range cfg.Collections {
		cols[tag] = ns
	}
	return &Store{client: client, defaultDB: cfg.DefaultDatabase, collections: cols}
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return db.ErrNotConnected
	}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the deployment responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Resolve returns the namespace a collection tag maps to.
func (s *Store) Resolve(tag string) (Namespace, error) {
	if ns, ok := s.collections[tag]; ok {
		return ns, nil
	}
	if s.defaultDB != "" {
		return Namespace{Database: s.defaultDB, Collection: tag}, nil
	}
	return Namespace{}, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, tag)
}

func (s *Store) collection(tag string) (*mongo.Collection, error) {
	ns, err := s.Resolve(tag)
	if err != nil {
		return nil, err
	}
	return s.client.Database(ns.Database).Collection(ns.Collection), nil
}

// Aggregate runs pipeline on the collection behind tag and calls each for every
// resulting document, in cursor order. Returning an error from each stops iteration.
func (s *Store) Aggregate(ctx context.Context, tag string, pipeline mongo.Pipeline, each func(bson.M) error) error {
	coll, err := s.collection(tag)
	if err != nil {
		return err
	}

	cur, err := coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return &db.Error{Op: db.OpAggregate, Err: err}
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("%w: %w", db.ErrInvalidDocument, err)}
		}
		if err := each(doc); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return &db.Error{Op: db.OpAggregate, Err: err}
	}
	return nil
}

// DeleteMany removes every document matching filter and returns the count.
func (s *Store) DeleteMany(ctx context.Context, tag string, filter bson.M) (int64, error) {
	coll, err := s.collection(tag)
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, &db.Error{Op: db.OpDeleteMany, Err: err}
	}
	return res.DeletedCount, nil
}

// UpdateMany applies update to every document matching filter and returns
// the number of documents modified.
func (s *Store) UpdateMany(ctx context.Context, tag string, filter, update bson.M) (int64, error) {
	coll, err := s.collection(tag)
	if err != nil {
		return 0, err
	}
	res, err := coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, &db.Error{Op: db.OpUpdateMany, Err: err}
	}
	return res.ModifiedCount, nil
}
