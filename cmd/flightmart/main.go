// Command flightmart loads the flight star schema: it reads the airline,
// airport, and flight CSV extracts, builds and appends the four dimension
// tables, resolves fact foreign keys, and bulk-loads the fact table into the
// configured database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"flightmart/internal/config"
	"flightmart/internal/csvsource"
	"flightmart/internal/metrics"
	"flightmart/internal/metrics/datadog"
	"flightmart/internal/metrics/prompush"
	"flightmart/internal/pipeline"
	"flightmart/internal/qa"
	"flightmart/internal/resolver"
	"flightmart/internal/storage"
	"flightmart/internal/storage/mssql"
	"flightmart/internal/storage/mysql"
	"flightmart/internal/storage/postgres"
	"flightmart/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flightmart: %v\n", err)
		os.Exit(1)
	}
}

// run carries the whole load so its deferred cleanups (store close, metrics
// flush) unwind before main decides the exit code. A failed run still pushes
// its failure-stage metrics that way.
func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	policy, err := resolver.ParseMissPolicy(cfg.MissPolicy)
	if err != nil {
		return err
	}

	installMetrics(cfg)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	log.Printf("flightmart[%s]: driver=%s batch_size=%d miss_policy=%s",
		cfg.RunID, cfg.Driver, cfg.BatchSize, policy)

	start := time.Now()
	src, err := csvsource.LoadAll(ctx, cfg.AirlinesCSV, cfg.AirportsCSV, cfg.FlightsCSV)
	metrics.RecordStage(cfg.RunID, "extract", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("read extracts: %w", err)
	}
	log.Printf("flightmart[%s]: read %d airlines, %d airports, %d flights",
		cfg.RunID, len(src.Airlines), len(src.Airports), len(src.Flights))

	res, err := pipeline.Run(ctx, store, src, pipeline.Options{
		BatchSize:    cfg.BatchSize,
		RelaxFKs:     cfg.RelaxFKs,
		MissPolicy:   policy,
		EnsureSchema: cfg.EnsureSchema,
		RunID:        cfg.RunID,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if cfg.Audit {
		report, err := qa.Run(ctx, store, qa.ForDriver(cfg.Driver))
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		for table, n := range report.TableCounts {
			log.Printf("audit[%s]: %s: %d rows", cfg.RunID, table, n)
		}
		problems := report.Problems()
		for _, p := range problems {
			log.Printf("audit[%s]: PROBLEM: %s", cfg.RunID, p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("audit found %d problems", len(problems))
		}
	}

	log.Printf("flightmart[%s]: loaded %d facts in %s", cfg.RunID, res.FactsLoaded, time.Since(start).Round(time.Millisecond))
	return nil
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(ctx, dsn)
	case "mysql":
		return mysql.Open(ctx, dsn)
	case "sqlite":
		return sqlite.Open(ctx, dsn)
	case "mssql":
		return mssql.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// installMetrics wires the selected backend; on init failure the no-op
// backend stays so the load still runs.
func installMetrics(cfg *config.Config) {
	switch cfg.MetricsBackend {
	case "prometheus":
		b, err := prompush.NewBackend("flightmart", cfg.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: prometheus init: %v; metrics disabled", err)
			return
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.StatsdAddr,
			Namespace:  "flightmart.",
			GlobalTags: []string{"run:" + cfg.RunID},
		})
		if err != nil {
			log.Printf("metrics: datadog init: %v; metrics disabled", err)
			return
		}
		metrics.SetBackend(b)
	}
}
