// Package storage contains the storage-agnostic contracts and the batched
// fact loader. Concrete stores live in the backend subpackages (postgres,
// mysql, sqlite, mssql); everything here talks to them through the Store and
// Tx interfaces so the loader and pipeline stay backend-neutral and unit
// tests can run against fakes.
package storage

import "context"

// DimensionRow is one persisted dimension row as read back from the store:
// surrogate id plus the natural-key columns rendered as strings.
type DimensionRow struct {
	ID  int64
	Key []string
}

// Store is a single connection to the target database, held for the whole
// load run and closed exactly once.
type Store interface {
	// EnsureSchema creates the five star-schema tables if absent.
	EnsureSchema(ctx context.Context) error

	// AppendRows inserts dimension rows outside any explicit transaction
	// (append-only; the caller must not reload the same source twice).
	AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// QueryDimension reads back (surrogate id, natural key columns) for
	// building lookup maps.
	QueryDimension(ctx context.Context, table, idColumn string, keyColumns []string) ([]DimensionRow, error)

	// BeginTx starts the transaction wrapping one fact batch.
	BeginTx(ctx context.Context) (Tx, error)

	// DisableFKChecks and RestoreFKChecks toggle foreign-key enforcement
	// for the duration of a load, using whatever mechanism the backend has.
	DisableFKChecks(ctx context.Context) error
	RestoreFKChecks(ctx context.Context) error

	// Count runs a scalar COUNT(*)-style query; used by the QA audit.
	Count(ctx context.Context, query string) (int64, error)

	Close(ctx context.Context) error
}

// Tx is one fact-batch transaction.
type Tx interface {
	// InsertRows executes a single multi-row insert for the whole batch.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error
	Commit(ctx context.Context) error
	// Rollback after Commit is a no-op; stores must tolerate it so the
	// loader can defer it unconditionally.
	Rollback(ctx context.Context) error
}
