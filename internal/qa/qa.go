// Package qa runs post-load integrity checks against the star schema:
// row counts, natural-key duplicates, orphaned fact references, null
// dimension keys, and cancellation consistency.
package qa

import (
	"context"
	"fmt"

	"flightmart/internal/storage"
)

// Counter is the slice of the store the audit needs.
type Counter interface {
	Count(ctx context.Context, query string) (int64, error)
}

// Dialect carries the per-backend SQL differences the audit queries hit.
type Dialect struct {
	Quote func(string) string
	// True is the boolean literal for WHERE clauses ("TRUE" or "1").
	True string
}

// ForDriver returns the audit dialect for a config driver name.
func ForDriver(driver string) Dialect {
	switch driver {
	case "mysql":
		return Dialect{Quote: storage.BacktickIdent, True: "TRUE"}
	case "sqlite", "mssql":
		return Dialect{Quote: storage.QuoteIdent, True: "1"}
	default:
		return Dialect{Quote: storage.QuoteIdent, True: "TRUE"}
	}
}

// Report holds the audit results. Zero values in the violation fields mean
// a clean load.
type Report struct {
	TableCounts map[string]int64

	// Duplicate natural keys per dimension table.
	DuplicateKeys map[string]int64

	// Fact rows whose set dimension key matches no dimension row.
	Orphans map[string]int64

	// Fact rows with a null dimension key (expected under the null miss
	// policy, a defect under fail).
	NullKeys map[string]int64

	CancelledWithoutReason int64
	CancelledWithReason    int64
}

// factKeys maps fact FK columns to their dimension table and id column.
var factKeys = []struct {
	column, table, id string
}{
	{"airline_id", storage.AirlineTable, "airline_id"},
	{"origin_airport_id", storage.AirportTable, "airport_id"},
	{"destination_airport_id", storage.AirportTable, "airport_id"},
	{"date_id", storage.DateTable, "date_id"},
	{"cancellation_id", storage.CancellationTable, "cancellation_id"},
}

// Run executes the audit queries through the store.
func Run(ctx context.Context, c Counter, d Dialect) (*Report, error) {
	q := d.Quote
	r := &Report{
		TableCounts:   map[string]int64{},
		DuplicateKeys: map[string]int64{},
		Orphans:       map[string]int64{},
		NullKeys:      map[string]int64{},
	}

	for _, table := range []string{
		storage.AirlineTable, storage.AirportTable, storage.DateTable,
		storage.CancellationTable, storage.FactTable,
	} {
		n, err := c.Count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", q(table)))
		if err != nil {
			return nil, fmt.Errorf("qa: count %s: %w", table, err)
		}
		r.TableCounts[table] = n
	}

	for _, dim := range []storage.Dimension{storage.AirlineDim, storage.AirportDim, storage.CancellationDim} {
		key := q(dim.KeyColumns[0])
		n, err := c.Count(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) AS dup",
			key, q(dim.Table), key))
		if err != nil {
			return nil, fmt.Errorf("qa: duplicates %s: %w", dim.Table, err)
		}
		r.DuplicateKeys[dim.Table] = n
	}

	fact := q(storage.FactTable)
	for _, fk := range factKeys {
		// A null key is deliberate miss handling, not an orphan, so the
		// orphan check only counts set keys that match nothing.
		n, err := c.Count(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM %s f LEFT JOIN %s d ON f.%s = d.%s WHERE f.%s IS NOT NULL AND d.%s IS NULL",
			fact, q(fk.table), q(fk.column), q(fk.id), q(fk.column), q(fk.id)))
		if err != nil {
			return nil, fmt.Errorf("qa: orphans %s: %w", fk.column, err)
		}
		r.Orphans[fk.column] = n

		m, err := c.Count(ctx, fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NULL", fact, q(fk.column)))
		if err != nil {
			return nil, fmt.Errorf("qa: nulls %s: %w", fk.column, err)
		}
		r.NullKeys[fk.column] = m
	}

	var err error
	r.CancelledWithoutReason, err = c.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s = %s AND %s IS NULL",
		fact, q("is_cancelled"), d.True, q("cancellation_id")))
	if err != nil {
		return nil, fmt.Errorf("qa: cancelled without reason: %w", err)
	}
	r.CancelledWithReason, err = c.Count(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s = %s AND %s IS NOT NULL",
		fact, q("is_cancelled"), d.True, q("cancellation_id")))
	if err != nil {
		return nil, fmt.Errorf("qa: cancelled with reason: %w", err)
	}
	return r, nil
}

// Problems lists human-readable violations; empty means a clean audit.
// Null keys are informational and not reported here.
func (r *Report) Problems() []string {
	var out []string
	for _, dim := range []string{storage.AirlineTable, storage.AirportTable, storage.CancellationTable} {
		if n := r.DuplicateKeys[dim]; n > 0 {
			out = append(out, fmt.Sprintf("%d duplicate natural keys in %s", n, dim))
		}
	}
	for _, fk := range factKeys {
		if n := r.Orphans[fk.column]; n > 0 {
			out = append(out, fmt.Sprintf("%d orphaned fact rows via %s", n, fk.column))
		}
	}
	if r.CancelledWithoutReason > 0 {
		out = append(out, fmt.Sprintf("%d cancelled flights without a cancellation reason", r.CancelledWithoutReason))
	}
	return out
}
