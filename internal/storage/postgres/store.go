// Package postgres implements storage.Store on a single pgx v5 connection.
// A narrow connection seam (pgConn) mirrors the subset of *pgx.Conn methods
// used, so unit tests can run against fakes without a network.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"flightmart/internal/storage"
)

// maxParams is the postgres extended-protocol bind-parameter cap.
const maxParams = 65535

// pgConn is the minimal subset of *pgx.Conn methods the store uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	conn pgConn
}

// Open connects with pgx.Connect. The connection is held for the whole load
// run; callers close it via Close.
func Open(ctx context.Context, dsn string) (*Store, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return &Store{conn: c}, nil
}

// newStoreFromConn wires a fake connection in for unit tests.
func newStoreFromConn(c pgConn) *Store { return &Store{conn: c} }

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS "airline" (
		airline_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		airline_iata TEXT NOT NULL UNIQUE,
		airline_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS "airport" (
		airport_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		iata_code TEXT NOT NULL UNIQUE,
		airport_name TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS "date" (
		date_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		year INT NOT NULL,
		month INT NOT NULL,
		day INT NOT NULL,
		day_of_week TEXT,
		UNIQUE (year, month, day)
	)`,
	`CREATE TABLE IF NOT EXISTS "cancellation_reason" (
		cancellation_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		cancellation_type TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS "fact_flights" (
		flight_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		flight_number INT,
		aircraft_id TEXT,
		airline_id BIGINT REFERENCES "airline"(airline_id),
		origin_airport_id BIGINT REFERENCES "airport"(airport_id),
		destination_airport_id BIGINT REFERENCES "airport"(airport_id),
		date_id BIGINT REFERENCES "date"(date_id),
		cancellation_id BIGINT REFERENCES "cancellation_reason"(cancellation_id),
		scheduled_departure TIME,
		scheduled_time INT,
		departure_time TIME,
		departure_delay INT,
		taxi_out INT,
		wheels_off TIME,
		elapsed_time INT,
		air_time INT,
		distance INT,
		wheels_on TIME,
		taxi_in INT,
		scheduled_arrival TIME,
		arrival_time TIME,
		arrival_delay INT,
		is_diverted BOOLEAN,
		is_cancelled BOOLEAN
	)`,
}

// EnsureSchema creates the star-schema tables if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// AppendRows inserts dimension rows with multi-row INSERTs, chunked to stay
// under the bind-parameter cap. Non-transactional per call.
func (s *Store) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	var total int64
	for _, c := range storage.StatementChunks(len(rows), len(columns), maxParams) {
		chunk := rows[c.Start:c.End]
		sql := storage.BuildInsert(table, columns, len(chunk), storage.QuoteIdent, storage.DollarPlaceholder)
		tag, err := s.conn.Exec(ctx, sql, storage.Flatten(chunk)...)
		if err != nil {
			return total, fmt.Errorf("append %s: %w", table, describeErr(err))
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// QueryDimension reads back surrogate ids and natural-key columns.
func (s *Store) QueryDimension(ctx context.Context, table, idColumn string, keyColumns []string) ([]storage.DimensionRow, error) {
	cols := append([]string{idColumn}, keyColumns...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = storage.QuoteIdent(c)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), storage.QuoteIdent(table))

	rows, err := s.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []storage.DimensionRow
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if len(vals) != len(cols) {
			return nil, fmt.Errorf("scan %s: %d columns, want %d", table, len(vals), len(cols))
		}
		id, err := asInt64(vals[0])
		if err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		key := make([]string, len(keyColumns))
		for i, v := range vals[1:] {
			key[i] = asString(v)
		}
		out = append(out, storage.DimensionRow{ID: id, Key: key})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return out, nil
}

// BeginTx starts one fact-batch transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// DisableFKChecks suspends trigger-based constraint enforcement for the
// session (requires a role allowed to set session_replication_role).
func (s *Store) DisableFKChecks(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "SET session_replication_role = replica")
	return err
}

// RestoreFKChecks re-enables constraint enforcement.
func (s *Store) RestoreFKChecks(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "SET session_replication_role = DEFAULT")
	return err
}

// Count runs a scalar count query.
func (s *Store) Count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.conn.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying connection.
func (s *Store) Close(ctx context.Context) error { return s.conn.Close(ctx) }

// pgTx adapts pgx.Tx to storage.Tx.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	for _, c := range storage.StatementChunks(len(rows), len(columns), maxParams) {
		chunk := rows[c.Start:c.End]
		sql := storage.BuildInsert(table, columns, len(chunk), storage.QuoteIdent, storage.DollarPlaceholder)
		if _, err := t.tx.Exec(ctx, sql, storage.Flatten(chunk)...); err != nil {
			return describeErr(err)
		}
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// describeErr surfaces the postgres error detail when present; constraint
// violations carry the offending values there.
func describeErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s: %s)", err, pgErr.SQLState(), pgErr.Detail)
	}
	return err
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected id type %T", v)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
