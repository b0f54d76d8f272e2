package config

import (
	"flag"
	"strings"
	"testing"
)

// TestLoadFromArgs_EnvDefaultsAndFlags checks the precedence model:
// environment seeds defaults, explicit flags override env.
func TestLoadFromArgs_EnvDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	env := map[string]string{
		"DB_DRIVER":   "mysql",
		"DB_DSN":      "user:pass@tcp(db:3306)/flights",
		"BATCH_SIZE":  "12",
		"RELAX_FKS":   "false",
		"MISS_POLICY": "report",
	}
	getenv := func(k string) string { return env[k] }

	cfg := LoadFromArgs(fs, getenv, []string{"-batch_size=3", "-flights_csv=/data/flights.csv"})

	if cfg.Driver != "mysql" || cfg.DSN == "" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.RelaxFKs {
		t.Fatal("bool env not applied")
	}
	if cfg.MissPolicy != "report" {
		t.Fatalf("MissPolicy = %q", cfg.MissPolicy)
	}
	if cfg.BatchSize != 3 {
		t.Fatalf("flag override not applied: %d", cfg.BatchSize)
	}
	if cfg.FlightsCSV != "/data/flights.csv" {
		t.Fatalf("FlightsCSV = %q", cfg.FlightsCSV)
	}
}

func TestLoadFromArgs_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := LoadFromArgs(fs, func(string) string { return "" }, nil)

	if cfg.Driver != "postgres" {
		t.Fatalf("want postgres default, got %s", cfg.Driver)
	}
	if cfg.BatchSize != 5000 {
		t.Fatalf("BatchSize default = %d", cfg.BatchSize)
	}
	if !cfg.RelaxFKs || !cfg.EnsureSchema || !cfg.Audit {
		t.Fatalf("toggle defaults: %+v", cfg)
	}
	if cfg.MissPolicy != "null" {
		t.Fatalf("MissPolicy default = %q", cfg.MissPolicy)
	}
	if cfg.RunID == "" {
		t.Fatal("RunID must be generated when unset")
	}
}

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	t.Run("explicit DSN wins", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Driver: "postgres", DSN: "postgres://x@y/z"}
		got, err := cfg.BuildDSN()
		if err != nil || got != "postgres://x@y/z" {
			t.Fatalf("BuildDSN = %q, %v", got, err)
		}
	})

	t.Run("postgres assembled from parts", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{
			Driver: "postgres",
			DBUser: "u", DBPassword: "p",
			DBHost: "db", DBPort: "5432", DBName: "flights",
		}
		got, err := cfg.BuildDSN()
		if err != nil {
			t.Fatalf("BuildDSN: %v", err)
		}
		if !strings.HasPrefix(got, "postgres://u:p@db:5432/flights") {
			t.Fatalf("BuildDSN = %q", got)
		}
	})

	t.Run("non-postgres requires explicit DSN", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{Driver: "sqlite"}
		if _, err := cfg.BuildDSN(); err == nil {
			t.Fatal("want error for missing sqlite DSN")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{Driver: "postgres", BatchSize: 100, MissPolicy: "null"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Driver = "oracle" }, "unknown driver"},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, "batch_size"},
		{"bad miss policy", func(c *Config) { c.MissPolicy = "drop" }, "miss_policy"},
		{"bad metrics backend", func(c *Config) { c.MetricsBackend = "graphite" }, "metrics backend"},
		{"prometheus without gateway", func(c *Config) { c.MetricsBackend = "prometheus" }, "pushgateway_url"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
