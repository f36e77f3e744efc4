package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/surfcat/gasdb/internal/policy"
)

// Supported database drivers.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverSQLite = "sqlite"
)

// Config holds the gasdb configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty keys disable auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string       `yaml:"driver"` // mongo, redis, valkey, sqlite (default: mongo)
	Mongo            MongoConfig  `yaml:"mongo"`
	Redis            RedisConfig  `yaml:"redis"`
	SQLite           SQLiteConfig `yaml:"sqlite"`
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
}

// MongoConfig holds MongoDB settings. Collections maps a collection tag to
// the namespace holding it; unmapped tags live in DefaultDatabase.
type MongoConfig struct {
	URI             string                     `yaml:"uri"`
	DefaultDatabase string                     `yaml:"default_database"`
	Collections     map[string]NamespaceConfig `yaml:"collections"`
}

// NamespaceConfig locates one collection.
type NamespaceConfig struct {
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RedisConfig holds Redis/Valkey settings.
type RedisConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// SQLiteConfig holds snapshot settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ReconcileConfig holds query defaults and policy overrides.
type ReconcileConfig struct {
	Calculator    string                   `yaml:"calculator"`
	Model         string                   `yaml:"model"`
	Rotations     []map[string]float64     `yaml:"rotations"`
	EnergyWindows map[string]policy.Window `yaml:"energy_windows"`
	Surface       SurfaceLimits            `yaml:"surface"`
	ProgressEvery int                      `yaml:"progress_every"`
	Streaming     bool                     `yaml:"streaming"`
}

// SurfaceLimits bounds surface-energy relaxation quality. Zero keeps the built-in limits.
type SurfaceLimits struct {
	MaxForce    float64 `yaml:"max_force"`
	MaxMovement float64 `yaml:"max_movement"`
}

// Load reads configuration for env. GASDB_CONFIG, when set, names the file directly.
func Load(env string) (Config, error) {
	configPath := os.Getenv("GASDB_CONFIG")
	if configPath == "" {
		configPath = findConfigPath(env)
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Mongo.DefaultDatabase == "" {
		c.Database.Mongo.DefaultDatabase = "gasdb"
	}
	if c.Database.Redis.KeyPrefix == "" {
		c.Database.Redis.KeyPrefix = "gasdb:"
	}
	if c.Reconcile.Calculator == "" {
		c.Reconcile.Calculator = policy.DefaultCalculator
	}
	if c.Reconcile.Model == "" {
		c.Reconcile.Model = policy.DefaultModel
	}
	if c.Reconcile.ProgressEvery <= 0 {
		c.Reconcile.ProgressEvery = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.Mongo.URI == "" {
			return fmt.Errorf("database.mongo.uri is required")
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Redis.Addrs) == 0 {
			return fmt.Errorf("database.redis.addrs is required")
		}
	case DriverSQLite:
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver must be one of mongo, redis, valkey, sqlite, got %q", c.Database.Driver)
	}
	if err := policy.Default().CheckCalculator(c.Reconcile.Calculator); err != nil {
		return fmt.Errorf("reconcile.calculator: %w", err)
	}
	for name, w := range c.Reconcile.EnergyWindows {
		if w.EnergyMin >= w.EnergyMax {
			return fmt.Errorf("reconcile.energy_windows.%s: energy_min must be below energy_max", name)
		}
	}
	return nil
}

// Policy applies the configured overrides to the built-in policy.
func (c *Config) Policy() *policy.Provider {
	p := policy.Default()
	for adsorbate, w := range c.Reconcile.EnergyWindows {
		p = p.WithWindow(adsorbate, w)
	}
	if s := c.Reconcile.Surface; s.MaxForce > 0 && s.MaxMovement > 0 {
		p = p.WithSurfaceLimits(s.MaxForce, s.MaxMovement)
	}
	return p
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
