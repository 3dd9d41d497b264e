package config

import (
	"math"
	"strings"
	"testing"

	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "redis://localhost:6379/0" || cfg.Database.Namespace != "plz_geosearch" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Database.BuildTimeoutSec != 120 || cfg.Database.QueryTimeoutSec != 3 {
		t.Errorf("timeouts = %d/%d", cfg.Database.BuildTimeoutSec, cfg.Database.QueryTimeoutSec)
	}
	if cfg.Ingest.InputData != "data_setup/data.csv" {
		t.Errorf("ingest.input_data = %q", cfg.Ingest.InputData)
	}
	if cfg.Strategy() != domprox.Lazy || cfg.Index.MaxDistKm != 200 || cfg.Index.ForceRecreate {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Index.SpatialBackend != SpatialRedis || cfg.Index.WriteBatchSize != 100 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Search.Limit != 5 {
		t.Errorf("search.limit = %d", cfg.Search.Limit)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Index:  IndexConfig{Strategy: "eager", MaxDistKm: 50, SpatialBackend: SpatialMemory},
		Search: SearchConfig{Limit: 10},
	}
	cfg.ApplyDefaults()

	if cfg.Strategy() != domprox.Eager || cfg.Index.MaxDistKm != 50 || cfg.Index.SpatialBackend != SpatialMemory {
		t.Errorf("explicit index values overwritten: %+v", cfg.Index)
	}
	if cfg.Search.Limit != 10 {
		t.Errorf("explicit search limit overwritten: %d", cfg.Search.Limit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing url", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"bad namespace", func(c *Config) { c.Database.Namespace = "plz geo" }, "database.namespace"},
		{"missing input", func(c *Config) { c.Ingest.InputData = "" }, "ingest.input_data"},
		{"unknown strategy", func(c *Config) { c.Index.Strategy = "greedy" }, "index.strategy"},
		{"negative radius", func(c *Config) { c.Index.MaxDistKm = -1 }, "index.max_dist_km"},
		{"NaN radius", func(c *Config) { c.Index.MaxDistKm = math.NaN() }, "index.max_dist_km"},
		{"unknown backend", func(c *Config) { c.Index.SpatialBackend = "postgis" }, "index.spatial_backend"},
		{"negative workers", func(c *Config) { c.Index.Workers = -2 }, "index.workers"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.errMsg)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PLZGEO_TEST_SET", "redis://cache:6379/1")
	t.Setenv("PLZGEO_TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"url: ${PLZGEO_TEST_SET}", "url: redis://cache:6379/1"},
		{"url: ${PLZGEO_TEST_SET:-redis://localhost}", "url: redis://cache:6379/1"},
		{"url: ${PLZGEO_TEST_EMPTY:-redis://localhost:6379/0}", "url: redis://localhost:6379/0"},
		{"url: ${PLZGEO_TEST_UNSET}", "url: "},
		{"plain: value", "plain: value"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoad_LocalWithEnvOverrides(t *testing.T) {
	t.Setenv("DB_URL", "redis://db:6379/2")
	t.Setenv("DB_DB", "plz_test")
	t.Setenv("MAX_DIST_KM", "150")
	t.Setenv("INDEX_STRATEGY", "eager")
	t.Setenv("FORCE_RECREATE", "true")
	t.Setenv("SPATIAL_BACKEND", "memory")
	t.Setenv("INPUT_DATA", "/data/plz.csv")
	t.Setenv("PORT", "9090")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "redis://db:6379/2" || cfg.Database.Namespace != "plz_test" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Strategy() != domprox.Eager || cfg.Index.MaxDistKm != 150 || !cfg.Index.ForceRecreate {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Index.SpatialBackend != SpatialMemory || cfg.Ingest.InputData != "/data/plz.csv" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
