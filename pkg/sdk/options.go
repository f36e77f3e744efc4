package gasdb

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surfcat/gasdb/internal/config"
	"github.com/surfcat/gasdb/internal/policy"
	fetchuc "github.com/surfcat/gasdb/internal/usecase/fetch"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg        config.Config
	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// Window bounds accepted adsorption energies and relaxation quality.
type Window = policy.Window

// WithMongo reads documents from MongoDB. Collections live in database unless
// mapped elsewhere with WithCollection.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverMongo
		c.cfg.Database.Mongo.URI = uri
		c.cfg.Database.Mongo.DefaultDatabase = database
	})
}

// WithCollection maps a collection tag (e.g. "fireworks") to another MongoDB namespace.
func WithCollection(tag, database, collection string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.cfg.Database.Mongo.Collections == nil {
			c.cfg.Database.Mongo.Collections = map[string]config.NamespaceConfig{}
		}
		c.cfg.Database.Mongo.Collections[tag] = config.NamespaceConfig{Database: database, Collection: collection}
	})
}

// WithValkey reads RedisJSON documents from Valkey.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverValkey
		c.cfg.Database.Redis.Addrs = []string{addr}
		c.cfg.Database.Redis.Password = password
	})
}

// WithRedis reads RedisJSON documents from Redis.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Redis.Addrs = []string{addr}
		c.cfg.Database.Redis.Password = password
	})
}

// WithKeyPrefix sets the Redis/Valkey key prefix. Default: "gasdb:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Redis.KeyPrefix = prefix
	})
}

// WithSQLite reads documents from a snapshot file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverSQLite
		c.cfg.Database.SQLite.Path = path
	})
}

// WithReadinessTimeout bounds the wait for the store at startup. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.ReadinessTimeout = int(d.Round(time.Second) / time.Second)
	})
}

// WithDefaultCalculator sets the calculator used when a query names none. Default: vasp.
func WithDefaultCalculator(calc string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Reconcile.Calculator = calc
	})
}

// WithDefaultModel sets the surrogate model used when a query names none. Default: model0.
func WithDefaultModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Reconcile.Model = model
	})
}

// WithEnergyWindow replaces the quality window of adsorbate. An empty
// adsorbate replaces the fallback window.
func WithEnergyWindow(adsorbate string, w Window) Option {
	return optionFunc(func(c *clientConfig) {
		if c.cfg.Reconcile.EnergyWindows == nil {
			c.cfg.Reconcile.EnergyWindows = map[string]policy.Window{}
		}
		c.cfg.Reconcile.EnergyWindows[adsorbate] = w
	})
}

// WithStreaming selects the single-pass lowest-energy aggregator.
func WithStreaming() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Reconcile.Streaming = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// QueryOption adjusts a single query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	calculator  string
	model       string
	rotations   []map[string]float64
	filters     []Condition
	projections []Projection
}

// WithCalculator selects the calculator of one query.
func WithCalculator(calc string) QueryOption {
	return func(q *queryConfig) { q.calculator = calc }
}

// WithModel selects the surrogate model of one query.
func WithModel(model string) QueryOption {
	return func(q *queryConfig) { q.model = model }
}

// WithRotations checks every catalog site under each rotation (phi, theta, psi).
func WithRotations(rotations ...map[string]float64) QueryOption {
	return func(q *queryConfig) { q.rotations = rotations }
}

// WithFilters replaces the default quality filters of a document fetch.
// Called with no conditions, every document of the collection matches.
func WithFilters(conds ...Condition) QueryOption {
	return func(q *queryConfig) {
		q.filters = append([]Condition{}, conds...)
	}
}

// WithProjection adds field, copied from the dotted path, to the fields a
// document fetch returns. Documents lacking path are dropped.
func WithProjection(field, path string) QueryOption {
	return func(q *queryConfig) {
		q.projections = append(q.projections, Projection{Field: field, Path: path})
	}
}

func (q queryConfig) fetchParams() fetchuc.Params {
	return fetchuc.Params{
		Calculator:       q.calculator,
		Filters:          q.filters,
		ExtraProjections: q.projections,
	}
}
