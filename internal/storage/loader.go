// This file implements the batched, transactional fact loader. The row-set
// is partitioned into fixed-size, contiguous, order-preserving batches; each
// batch is one multi-row insert inside one transaction. A failed batch is
// rolled back and aborts the run; already-committed batches stay committed,
// later batches are never attempted.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"flightmart/internal/metrics"
)

// DefaultBatchSize is used when the configured batch size is zero.
const DefaultBatchSize = 5000

// diagSampleRows bounds the failing-batch sample written to the log.
const diagSampleRows = 3

// Batch is a contiguous half-open row range [Start, End).
type Batch struct {
	Index int // 1-based
	Start int
	End   int
}

// Partition splits total rows into ceil(total/batchSize) contiguous batches
// with no gaps or overlaps. batchSize must be positive.
func Partition(total, batchSize int) []Batch {
	if batchSize <= 0 || total < 0 {
		return nil
	}
	out := make([]Batch, 0, (total+batchSize-1)/batchSize)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		out = append(out, Batch{Index: len(out) + 1, Start: start, End: end})
	}
	return out
}

// Loader persists an assembled fact row-set in sequential batches.
type Loader struct {
	Store     Store
	BatchSize int
	RelaxFKs  bool
	RunID     string // load-run identifier for log correlation
}

// Load inserts rows (already converted to storage-native scalars, aligned to
// columns) into table. It returns the number of committed rows; on a batch
// failure that count reflects the batches committed before the abort.
func (l *Loader) Load(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if l.Store == nil {
		return 0, fmt.Errorf("loader: store must not be nil")
	}
	bs := l.BatchSize
	if bs <= 0 {
		bs = DefaultBatchSize
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, fmt.Errorf("loader: row %d has %d values for %d columns", i, len(r), len(columns))
		}
	}

	batches := Partition(len(rows), bs)
	log.Printf("loader[%s]: %s rows -> %d batches of <=%d", l.RunID, humanize.Comma(int64(len(rows))), len(batches), bs)

	if l.RelaxFKs {
		if err := l.Store.DisableFKChecks(ctx); err != nil {
			return 0, fmt.Errorf("disable fk checks: %w", err)
		}
		// Restoration runs on every exit path; a failure here must not
		// mask the load error, so it is only logged.
		defer func() {
			if err := l.Store.RestoreFKChecks(ctx); err != nil {
				log.Printf("loader[%s]: restore fk checks: %v", l.RunID, err)
			}
		}()
	}

	var total int64
	start := time.Now()
	for _, b := range batches {
		batchStart := time.Now()
		if err := l.loadBatch(ctx, table, columns, rows[b.Start:b.End]); err != nil {
			l.logFailureSample(b, rows[b.Start:b.End])
			return total, fmt.Errorf("batch %d/%d rows [%d,%d): %w", b.Index, len(batches), b.Start, b.End, err)
		}
		total += int64(b.End - b.Start)
		metrics.RecordBatches(l.RunID, 1)

		elapsed := time.Since(batchStart)
		rps := float64(b.End-b.Start) / elapsed.Seconds()
		log.Printf("loader[%s]: batch %d/%d rows [%d,%d) committed, total=%s elapsed=%s rps=%.0f",
			l.RunID, b.Index, len(batches), b.Start, b.End,
			humanize.Comma(total), time.Since(start).Truncate(time.Millisecond), rps)
	}
	return total, nil
}

// loadBatch runs one batch in its own transaction. Rollback is deferred
// unconditionally; after a successful Commit it is a no-op.
func (l *Loader) loadBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := l.Store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.InsertRows(ctx, table, columns, rows); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (l *Loader) logFailureSample(b Batch, rows [][]any) {
	n := len(rows)
	if n > diagSampleRows {
		n = diagSampleRows
	}
	for i := 0; i < n; i++ {
		log.Printf("loader[%s]: batch %d failing sample row %d: %v", l.RunID, b.Index, b.Start+i, rows[i])
	}
}
