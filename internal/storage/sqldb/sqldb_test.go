package sqldb_test

import (
	"context"
	"testing"

	"flightmart/internal/storage"
	"flightmart/internal/storage/sqldb"
	"flightmart/internal/storage/sqlite"
)

// newStore opens an in-memory sqlite database with the schema applied.
// Open pins the pool to one connection, which is what makes :memory: usable
// here; each sqlite :memory: connection is a separate database.
func newStore(tb testing.TB) *sqldb.Store {
	tb.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close(context.Background()) })
	if err := s.EnsureSchema(context.Background()); err != nil {
		tb.Fatalf("ensure schema: %v", err)
	}
	return s
}

func TestAppendAndQueryDimension(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	n, err := s.AppendRows(ctx, storage.AirlineTable, storage.AirlineDim.InsertColumns, [][]any{
		{"AA", "American Airlines Inc."},
		{"DL", "Delta Air Lines Inc."},
	})
	if err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if n != 2 {
		t.Fatalf("AppendRows = %d, want 2", n)
	}

	rows, err := s.QueryDimension(ctx, storage.AirlineTable, storage.AirlineDim.IDColumn, storage.AirlineDim.KeyColumns)
	if err != nil {
		t.Fatalf("QueryDimension: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ID == rows[1].ID {
		t.Error("surrogate ids must be distinct")
	}
	keys := map[string]bool{}
	for _, r := range rows {
		keys[r.Key[0]] = true
	}
	if !keys["AA"] || !keys["DL"] {
		t.Errorf("unexpected keys: %+v", rows)
	}
}

func TestQueryDimensionCompositeKey(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	if _, err := s.AppendRows(ctx, storage.DateTable, storage.DateDim.InsertColumns, [][]any{
		{2015, 1, 1, "Thursday"},
	}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	rows, err := s.QueryDimension(ctx, storage.DateTable, storage.DateDim.IDColumn, storage.DateDim.KeyColumns)
	if err != nil {
		t.Fatalf("QueryDimension: %v", err)
	}
	want := []string{"2015", "1", "1"}
	for i, k := range rows[0].Key {
		if k != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, k, want[i])
		}
	}
}

func TestAppendDuplicateNaturalKeyFails(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	rows := [][]any{{"AA", "American"}}
	if _, err := s.AppendRows(ctx, storage.AirlineTable, storage.AirlineDim.InsertColumns, rows); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := s.AppendRows(ctx, storage.AirlineTable, storage.AirlineDim.InsertColumns, rows); err == nil {
		t.Error("duplicate natural key must violate the unique constraint")
	}
}

func TestAppendRowsStatementChunking(t *testing.T) {
	t.Parallel()

	// A 4-parameter cap forces 2-row statements for a 2-column insert.
	d := sqlite.Dialect
	d.MaxParams = 4

	base := newStore(t)
	s := sqldb.New(base.DB(), d)

	var rows [][]any
	for _, code := range []string{"AA", "DL", "UA", "WN", "B6"} {
		rows = append(rows, []any{code, code + " airline"})
	}
	n, err := s.AppendRows(context.Background(), storage.AirlineTable, storage.AirlineDim.InsertColumns, rows)
	if err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if n != 5 {
		t.Fatalf("AppendRows = %d, want 5", n)
	}
	got, err := s.Count(context.Background(), `SELECT COUNT(*) FROM "airline"`)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("count = %d, want 5", got)
	}
}

func TestTxCommit(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	cols := []string{"flight_number", "aircraft_id", "is_diverted", "is_cancelled"}
	rows := [][]any{
		{98, "N407AS", false, false},
		{2336, "N3KUAA", false, false},
	}
	if err := tx.InsertRows(ctx, storage.FactTable, cols, rows); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// Deferred rollback after commit must stay silent.
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Rollback after commit: %v", err)
	}

	n, err := s.Count(ctx, `SELECT COUNT(*) FROM "fact_flights"`)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestTxRollbackDiscards(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.InsertRows(ctx, storage.FactTable, []string{"flight_number"}, [][]any{{98}}); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	n, err := s.Count(ctx, `SELECT COUNT(*) FROM "fact_flights"`)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 after rollback", n)
	}
}

func TestFKToggles(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	if err := s.DisableFKChecks(ctx); err != nil {
		t.Fatalf("DisableFKChecks: %v", err)
	}
	// With checks off, a dangling airline_id is accepted.
	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.InsertRows(ctx, storage.FactTable, []string{"flight_number", "airline_id"}, [][]any{{98, 999}}); err != nil {
		t.Fatalf("InsertRows with FKs off: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.RestoreFKChecks(ctx); err != nil {
		t.Fatalf("RestoreFKChecks: %v", err)
	}
}

// Foreign keys must hold on whatever connection runs the load, with no pool
// pinning done by the caller. An unpinned pool would let a transaction land
// on a session that never saw the foreign_keys pragma.
func TestOpenEnforcesForeignKeysOnEverySession(t *testing.T) {
	t.Parallel()

	s, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite :memory:: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	// Churn a few statements so a pool wider than one connection would
	// have rotated sessions by now.
	for i := 0; i < 5; i++ {
		if _, err := s.Count(ctx, `SELECT COUNT(*) FROM "fact_flights"`); err != nil {
			t.Fatalf("count %d: %v", i, err)
		}
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer tx.Rollback(ctx)
	insertErr := tx.InsertRows(ctx, storage.FactTable, []string{"flight_number", "airline_id"}, [][]any{{98, 999}})
	if insertErr == nil {
		insertErr = tx.Commit(ctx)
	}
	if insertErr == nil {
		t.Fatal("dangling airline_id committed; foreign keys are not enforced on this session")
	}

	n, err := s.Count(ctx, `SELECT COUNT(*) FROM "fact_flights"`)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("fact count = %d, want 0", n)
	}
}
