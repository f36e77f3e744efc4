// Package app wires stores, repositories and usecases from configuration.
// The CLI, the HTTP server and the public SDK all start here.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/config"
	dbmongo "github.com/surfcat/gasdb/internal/db/mongo"
	dbredis "github.com/surfcat/gasdb/internal/db/redis"
	dbsqlite "github.com/surfcat/gasdb/internal/db/sqlite"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/logger"
	"github.com/surfcat/gasdb/internal/policy"
	documentrepo "github.com/surfcat/gasdb/internal/repository/document"
	"github.com/surfcat/gasdb/internal/repository/launchpad"
	mongorepo "github.com/surfcat/gasdb/internal/repository/mongo"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

// Source fetches and deletes documents.
type Source interface {
	fetchuc.Source
	purgeuc.Deleter
}

// Backend is an opened document store.
type Backend struct {
	Source Source
	// Defuser is nil when the store has no FireWorks launchpad.
	Defuser purgeuc.Defuser
	Pingers map[string]healthuc.Pinger
	Close   func()
}

// App holds the wired services.
type App struct {
	Config   config.Config
	Policy   *policy.Provider
	Source   Source
	Fetch    *fetchuc.Service
	Catalog  *cataloguc.Service
	Coverage *coverageuc.Service
	Purge    *purgeuc.Service
	Health   *healthuc.Service
	close    func()
}

// Open connects to the configured store, waits for it and wires the services.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	b, err := OpenBackend(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, b), nil
}

// OpenBackend connects to the store cfg names.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	log := logger.FromContext(ctx)
	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverMongo:
		cols := make(map[string]dbmongo.Namespace, len(cfg.Mongo.Collections))
		for tag, ns := range cfg.Mongo.Collections {
			cols[tag] = dbmongo.Namespace{Database: ns.Database, Collection: ns.Collection}
		}
		store, err := dbmongo.NewStore(ctx, dbmongo.Config{
			URI:             cfg.Mongo.URI,
			DefaultDatabase: cfg.Mongo.DefaultDatabase,
			Collections:     cols,
		})
		if err != nil {
			return Backend{}, fmt.Errorf("create mongo store: %w", err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return Backend{}, fmt.Errorf("mongo not ready: %w", err)
		}
		log.Info("Connected to MongoDB", zap.String("default_database", cfg.Mongo.DefaultDatabase))
		return Backend{
			Source:  mongorepo.New(store),
			Defuser: launchpad.New(store),
			Pingers: map[string]healthuc.Pinger{"database": store},
			Close:   store.Close,
		}, nil

	case config.DriverRedis, config.DriverValkey:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:     cfg.Redis.Addrs,
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return Backend{}, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return Backend{}, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		log.Info("Connected to "+cfg.Driver, zap.Strings("addrs", cfg.Redis.Addrs))
		return Backend{
			Source:  documentrepo.New(store),
			Pingers: map[string]healthuc.Pinger{"database": store},
			Close:   store.Close,
		}, nil

	case config.DriverSQLite:
		store, err := dbsqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return Backend{}, fmt.Errorf("open snapshot: %w", err)
		}
		log.Info("Opened snapshot", zap.String("path", cfg.SQLite.Path))
		return Backend{
			Source:  documentrepo.New(store),
			Pingers: map[string]healthuc.Pinger{"database": store},
			Close:   store.Close,
		}, nil
	}
	return Backend{}, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Wire builds the services over an opened backend.
func Wire(cfg config.Config, b Backend) *App {
	p := cfg.Policy()
	fetch := fetchuc.New(b.Source, p, fetchuc.WithProgressEvery(cfg.Reconcile.ProgressEvery))

	health := healthuc.New(b.Pingers["database"])
	for name, pinger := range b.Pingers {
		if name != "database" {
			health.WithComponent(name, pinger)
		}
	}

	closeFn := b.Close
	if closeFn == nil {
		closeFn = func() {}
	}
	return &App{
		Config:   cfg,
		Policy:   p,
		Source:   b.Source,
		Fetch:    fetch,
		Catalog:  cataloguc.New(fetch, p),
		Coverage: coverageuc.New(fetch).WithStreaming(cfg.Reconcile.Streaming),
		Purge:    purgeuc.New(b.Defuser, b.Source, p),
		Health:   health,
		close:    closeFn,
	}
}

// Rotations returns the configured rotations, or nil for the default one.
func (a *App) Rotations() []document.Map {
	if len(a.Config.Reconcile.Rotations) == 0 {
		return nil
	}
	out := make([]document.Map, len(a.Config.Reconcile.Rotations))
	for i, r := range a.Config.Reconcile.Rotations {
		m := make(document.Map, len(r))
		for k, v := range r {
			m[k] = document.Number(v)
		}
		out[i] = m
	}
	return out
}

// Close releases the store.
func (a *App) Close() { a.close() }
