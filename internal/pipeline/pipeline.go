// Package pipeline orchestrates one load run: build dimensions from the raw
// extracts, append them, read back surrogate ids, resolve fact keys, and
// bulk-load the fact table. Stages run sequentially; each is timed and
// reported through the metrics layer.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"flightmart/internal/csvsource"
	"flightmart/internal/dimension"
	"flightmart/internal/domain"
	"flightmart/internal/fact"
	"flightmart/internal/metrics"
	"flightmart/internal/resolver"
	"flightmart/internal/storage"
)

// Options tune one run.
type Options struct {
	BatchSize    int
	RelaxFKs     bool
	MissPolicy   resolver.MissPolicy
	EnsureSchema bool
	RunID        string
}

// Result summarizes what a run wrote.
type Result struct {
	Airlines      int64
	Airports      int64
	Dates         int64
	Cancellations int64

	FactsAssembled int
	FactsLoaded    int64

	// Misses is set under the report policy when lookups failed.
	Misses *resolver.Report
}

// Run executes the full load against an open store.
func Run(ctx context.Context, store storage.Store, src csvsource.Sources, opts Options) (*Result, error) {
	res := &Result{}

	if opts.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	err := timed(opts.RunID, "dimensions", func() error {
		return writeDimensions(ctx, store, src, opts.RunID, res)
	})
	if err != nil {
		return nil, err
	}

	var keys resolver.Keys
	err = timed(opts.RunID, "resolve", func() error {
		var err error
		keys, err = readKeys(ctx, store)
		return err
	})
	if err != nil {
		return nil, err
	}

	var facts []domain.FactFlight
	err = timed(opts.RunID, "facts", func() error {
		var err error
		facts, res.Misses, err = fact.Assemble(src.Flights, keys, opts.MissPolicy)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.FactsAssembled = len(facts)
	if res.Misses != nil {
		metrics.RecordRows(opts.RunID, "unresolved", int64(res.Misses.Total()))
		for _, line := range res.Misses.Lines() {
			log.Printf("pipeline[%s]: unresolved %s", opts.RunID, line)
		}
	}

	err = timed(opts.RunID, "load", func() error {
		loader := &storage.Loader{
			Store:     store,
			BatchSize: opts.BatchSize,
			RelaxFKs:  opts.RelaxFKs,
			RunID:     opts.RunID,
		}
		n, err := loader.Load(ctx, fact.Table, fact.Columns(), fact.Rows(facts))
		res.FactsLoaded = n
		return err
	})
	if err != nil {
		return res, err
	}
	metrics.RecordRows(opts.RunID, "facts", res.FactsLoaded)

	log.Printf("pipeline[%s]: done, %d facts from %d flights", opts.RunID, res.FactsLoaded, len(src.Flights))
	return res, nil
}

// writeDimensions dedups and appends the four dimensions in load order.
func writeDimensions(ctx context.Context, store storage.Store, src csvsource.Sources, runID string, res *Result) error {
	airlines := dimension.Airlines(src.Airlines)
	airports := dimension.Airports(src.Airports)
	dates := dimension.Dates(src.Flights)
	reasons := dimension.CancellationReasons(src.Flights)

	type dimWrite struct {
		dim   storage.Dimension
		rows  [][]any
		kind  string
		count *int64
	}
	writes := []dimWrite{
		{storage.AirlineDim, airlineRows(airlines), "airlines", &res.Airlines},
		{storage.AirportDim, airportRows(airports), "airports", &res.Airports},
		{storage.DateDim, dateRows(dates), "dates", &res.Dates},
		{storage.CancellationDim, cancellationRows(reasons), "cancellations", &res.Cancellations},
	}
	for _, w := range writes {
		n, err := store.AppendRows(ctx, w.dim.Table, w.dim.InsertColumns, w.rows)
		if err != nil {
			return fmt.Errorf("write %s: %w", w.dim.Table, err)
		}
		*w.count = n
		metrics.RecordRows(runID, w.kind, n)
		log.Printf("pipeline[%s]: %s: %d rows", runID, w.dim.Table, n)
	}
	return nil
}

// readKeys builds the lookup maps from the persisted dimensions.
func readKeys(ctx context.Context, store storage.Store) (resolver.Keys, error) {
	read := func(d storage.Dimension) ([]resolver.DimRow, error) {
		rows, err := store.QueryDimension(ctx, d.Table, d.IDColumn, d.KeyColumns)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", d.Table, err)
		}
		out := make([]resolver.DimRow, len(rows))
		for i, r := range rows {
			out[i] = resolver.DimRow{ID: r.ID, Key: r.Key}
		}
		return out, nil
	}

	airlines, err := read(storage.AirlineDim)
	if err != nil {
		return resolver.Keys{}, err
	}
	airports, err := read(storage.AirportDim)
	if err != nil {
		return resolver.Keys{}, err
	}
	dates, err := read(storage.DateDim)
	if err != nil {
		return resolver.Keys{}, err
	}
	cancellations, err := read(storage.CancellationDim)
	if err != nil {
		return resolver.Keys{}, err
	}
	return resolver.NewKeys(airlines, airports, dates, cancellations)
}

func airlineRows(in []domain.Airline) [][]any {
	out := make([][]any, len(in))
	for i, a := range in {
		out[i] = []any{a.IATACode, a.Name}
	}
	return out
}

func airportRows(in []domain.Airport) [][]any {
	out := make([][]any, len(in))
	for i, a := range in {
		out[i] = []any{a.IATACode, a.Name, a.City, a.State, a.Country, floatOrNil(a.Latitude), floatOrNil(a.Longitude)}
	}
	return out
}

func dateRows(in []domain.Date) [][]any {
	out := make([][]any, len(in))
	for i, d := range in {
		out[i] = []any{d.Year, d.Month, d.Day, d.DayOfWeek}
	}
	return out
}

func cancellationRows(in []domain.CancellationReason) [][]any {
	out := make([][]any, len(in))
	for i, c := range in {
		out[i] = []any{c.Code}
	}
	return out
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func timed(run, stage string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.RecordStage(run, stage, err, time.Since(start))
	return err
}
