package gasdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/surfcat/gasdb/internal/app"
	"github.com/surfcat/gasdb/internal/domain/document"
	"github.com/surfcat/gasdb/internal/domain/merge"
	"github.com/surfcat/gasdb/internal/policy"
	cataloguc "github.com/surfcat/gasdb/internal/usecase/catalog"
	coverageuc "github.com/surfcat/gasdb/internal/usecase/coverage"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
	purgeuc "github.com/surfcat/gasdb/internal/usecase/purge"
)

// Internal interfaces, swapped for mocks in tests.
type catalogUseCase interface {
	Unsimulated(ctx context.Context, req cataloguc.Request) ([]document.Document, error)
}

type coverageUseCase interface {
	LowCoverage(ctx context.Context, req coverageuc.Request) ([]merge.Outcome, error)
}

type purgeUseCase interface {
	Purge(ctx context.Context, fwids []int) (purgeuc.Report, error)
}

type documentUseCase interface {
	Adsorption(ctx context.Context, adsorbate string, p fetchuc.Params) ([]document.Document, error)
	Surface(ctx context.Context, p fetchuc.Params) ([]document.Document, error)
}

type predictionUseCase interface {
	DiscoverPredictions(ctx context.Context, calc string) (fetchuc.PredictionKeys, error)
	CatalogWithPredictions(ctx context.Context, calc string, latest bool) ([]document.Document, error)
}

// Client is the gasdb SDK entry point. It is safe for concurrent use.
type Client struct {
	app         *app.App
	catalog     catalogUseCase
	coverage    coverageUseCase
	purge       purgeUseCase
	documents   documentUseCase
	predictions predictionUseCase
	health      healthUseCase
	defaults    queryConfig
	obs         *observer
}

// New creates a Client and connects to the configured store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.cfg.Database.Driver == "" {
		return nil, errors.New("gasdb: store required (use WithMongo, WithRedis, WithValkey or WithSQLite)")
	}

	cc.cfg.ApplyDefaults()
	if err := cc.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gasdb: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, cc.cfg)
	if err != nil {
		return nil, fmt.Errorf("gasdb: %w", err)
	}
	return newClient(a, obs), nil
}

func newClient(a *app.App, obs *observer) *Client {
	defaults := queryConfig{
		calculator: a.Config.Reconcile.Calculator,
		model:      a.Config.Reconcile.Model,
		rotations:  a.Config.Reconcile.Rotations,
	}
	return &Client{
		app:         a,
		catalog:     a.Catalog,
		coverage:    a.Coverage,
		purge:       a.Purge,
		documents:   a.Fetch,
		predictions: a.Fetch,
		health:      a.Health,
		defaults:    defaults,
		obs:         obs,
	}
}

// Close releases the store connection.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

func (c *Client) query(opts []QueryOption) queryConfig {
	q := c.defaults
	for _, o := range opts {
		o(&q)
	}
	if q.calculator == "" {
		q.calculator = policy.DefaultCalculator
	}
	if q.model == "" {
		q.model = policy.DefaultModel
	}
	return q
}
