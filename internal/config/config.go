package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/plzgeo/internal/db"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

// Config holds the plzgeo configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig holds application identity.
type AppConfig struct {
	Name string `yaml:"name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL              string `yaml:"url"`       // redis://host:port/db
	Namespace        string `yaml:"namespace"` // key prefix, ":" appended
	DialTimeoutSec   int    `yaml:"dial_timeout_sec"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	BuildTimeoutSec  int    `yaml:"build_timeout_sec"`
	QueryTimeoutSec  int    `yaml:"query_timeout_sec"`
}

// IngestConfig locates the postal code source file.
type IngestConfig struct {
	InputData string `yaml:"input_data"`
}

// IndexConfig holds proximity index settings.
type IndexConfig struct {
	Strategy       string  `yaml:"strategy"` // eager, lazy (default: lazy)
	MaxDistKm      float64 `yaml:"max_dist_km"`
	ForceRecreate  bool    `yaml:"force_recreate"`
	SpatialBackend string  `yaml:"spatial_backend"` // redis, memory (default: redis)
	Workers        int     `yaml:"workers"`          // 0 = GOMAXPROCS
	WriteBatchSize int     `yaml:"write_batch_size"`
}

// SearchConfig holds text search settings.
type SearchConfig struct {
	Limit int `yaml:"limit"`
}

// Spatial backends for the lazy strategy.
const (
	SpatialRedis  = "redis"
	SpatialMemory = "memory"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "plzgeo"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.URL == "" {
		c.Database.URL = "redis://localhost:6379/0"
	}
	if c.Database.Namespace == "" {
		c.Database.Namespace = "plz_geosearch"
	}
	if c.Database.DialTimeoutSec <= 0 {
		c.Database.DialTimeoutSec = 5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.BuildTimeoutSec <= 0 {
		c.Database.BuildTimeoutSec = 120
	}
	if c.Database.QueryTimeoutSec <= 0 {
		c.Database.QueryTimeoutSec = 3
	}
	if c.Ingest.InputData == "" {
		c.Ingest.InputData = "data_setup/data.csv"
	}
	if c.Index.Strategy == "" {
		c.Index.Strategy = string(domprox.Lazy)
	}
	if c.Index.MaxDistKm == 0 {
		c.Index.MaxDistKm = 200
	}
	if c.Index.SpatialBackend == "" {
		c.Index.SpatialBackend = SpatialRedis
	}
	if c.Index.WriteBatchSize <= 0 {
		c.Index.WriteBatchSize = 100
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if !db.IsValidIdentifier(c.Database.Namespace) {
		return fmt.Errorf("database.namespace must match [a-zA-Z0-9_:-]+, got %q", c.Database.Namespace)
	}
	if c.Ingest.InputData == "" {
		return fmt.Errorf("ingest.input_data is required")
	}
	if _, err := domprox.ParseStrategy(c.Index.Strategy); err != nil {
		return fmt.Errorf("index.strategy: %w", err)
	}
	if math.IsNaN(c.Index.MaxDistKm) || math.IsInf(c.Index.MaxDistKm, 0) || c.Index.MaxDistKm <= 0 {
		return fmt.Errorf("index.max_dist_km must be a positive number, got %v", c.Index.MaxDistKm)
	}
	switch c.Index.SpatialBackend {
	case SpatialRedis, SpatialMemory:
		// ok
	default:
		return fmt.Errorf(
			"index.spatial_backend must be %q or %q, got %q",
			SpatialRedis, SpatialMemory, c.Index.SpatialBackend,
		)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must not be negative, got %d", c.Index.Workers)
	}
	return nil
}

// Strategy returns the parsed index strategy. Call after Validate.
func (c *Config) Strategy() domprox.Strategy {
	s, _ := domprox.ParseStrategy(c.Index.Strategy)
	return s
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
