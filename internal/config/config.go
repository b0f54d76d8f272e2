// Package config centralizes process configuration. All tunables are
// sourced from command-line flags with environment-variable fallbacks, so
// `-help` lists every knob and container deployments can use env alone.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to stay hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-batch_size=100"})
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Config holds all process configuration. Fields are plain values, so the
// struct can be copied and read across goroutines after construction.
type Config struct {
	// Input file locations.
	AirlinesCSV string // Path to the airlines CSV.
	AirportsCSV string // Path to the airports CSV.
	FlightsCSV  string // Path to the flights CSV.

	// Target database. DSN is required for mysql/sqlite/mssql; for
	// postgres it can be built from the discrete parts below.
	Driver     string // "postgres", "mysql", "sqlite", or "mssql".
	DSN        string // Full DSN; overrides the discrete parts when set.
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Load tunables.
	BatchSize  int    // Fact rows per transaction.
	RelaxFKs   bool   // Disable FK checks for the duration of the load.
	MissPolicy string // Unresolved-key handling: "null", "fail", or "report".

	// Schema and audit toggles.
	EnsureSchema bool // Create star-schema tables before loading.
	Audit        bool // Run post-load audit queries.

	// Metrics backend selection. Empty disables metrics.
	MetricsBackend string // "", "prometheus", or "datadog".
	PushgatewayURL string // Prometheus Pushgateway base URL.
	StatsdAddr     string // DogStatsD address, e.g. "127.0.0.1:8125".

	// RunID tags logs and metrics for one invocation.
	RunID string
}

// LoadFromArgs builds a Config by defining flags on fs, seeding each flag's
// default from getenv, and then parsing args. Explicit CLI flags override
// environment values.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOr := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOr := func(k string, d bool) bool {
		switch strings.ToLower(getenv(k)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	fs.StringVar(&cfg.AirlinesCSV, "airlines_csv", envOr("AIRLINES_CSV", "airlines.csv"), "Path to airlines CSV")
	fs.StringVar(&cfg.AirportsCSV, "airports_csv", envOr("AIRPORTS_CSV", "airports.csv"), "Path to airports CSV")
	fs.StringVar(&cfg.FlightsCSV, "flights_csv", envOr("FLIGHTS_CSV", "flights.csv"), "Path to flights CSV")

	fs.StringVar(&cfg.Driver, "driver", envOr("DB_DRIVER", "postgres"), "Database driver: postgres, mysql, sqlite, or mssql")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN (required for mysql/sqlite/mssql)")
	fs.StringVar(&cfg.DBUser, "db_user", envOr("DB_USER", "user"), "DB user (postgres convenience)")
	fs.StringVar(&cfg.DBPassword, "db_password", envOr("DB_PASSWORD", "password"), "DB password (postgres convenience)")
	fs.StringVar(&cfg.DBHost, "db_host", envOr("DB_HOST", "localhost"), "DB host (postgres convenience)")
	fs.StringVar(&cfg.DBPort, "db_port", envOr("DB_PORT", "5432"), "DB port (postgres convenience)")
	fs.StringVar(&cfg.DBName, "db_name", envOr("DB_NAME", "flights"), "DB name (postgres convenience)")

	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOr("BATCH_SIZE", 5000), "Fact rows per transaction")
	fs.BoolVar(&cfg.RelaxFKs, "relax_fks", boolEnvOr("RELAX_FKS", true), "Disable FK checks during the load")
	fs.StringVar(&cfg.MissPolicy, "miss_policy", envOr("MISS_POLICY", "null"), "Unresolved-key handling: null, fail, or report")

	fs.BoolVar(&cfg.EnsureSchema, "ensure_schema", boolEnvOr("ENSURE_SCHEMA", true), "Create star-schema tables before loading")
	fs.BoolVar(&cfg.Audit, "audit", boolEnvOr("AUDIT", true), "Run post-load audit queries")

	fs.StringVar(&cfg.MetricsBackend, "metrics", envOr("METRICS_BACKEND", ""), "Metrics backend: prometheus, datadog, or empty to disable")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", envOr("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway URL")
	fs.StringVar(&cfg.StatsdAddr, "statsd_addr", envOr("STATSD_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	fs.StringVar(&cfg.RunID, "run_id", envOr("RUN_ID", ""), "Run identifier; random when empty")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)

	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg
}

// Load is the production entry point: process flags, process env, os.Args.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// BuildDSN returns the connection string for the configured driver. An
// explicit DSN always wins; otherwise a postgres URL is assembled from the
// discrete parts.
func (c *Config) BuildDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.Driver != "postgres" {
		return "", fmt.Errorf("config: -dsn is required for driver %q", c.Driver)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	return u.String(), nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "mysql", "sqlite", "mssql":
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	switch c.MissPolicy {
	case "null", "fail", "report":
	default:
		return fmt.Errorf("config: unknown miss_policy %q", c.MissPolicy)
	}
	switch c.MetricsBackend {
	case "", "prometheus", "datadog":
	default:
		return fmt.Errorf("config: unknown metrics backend %q", c.MetricsBackend)
	}
	if c.MetricsBackend == "prometheus" && c.PushgatewayURL == "" {
		return fmt.Errorf("config: -pushgateway_url is required with the prometheus backend")
	}
	return nil
}
