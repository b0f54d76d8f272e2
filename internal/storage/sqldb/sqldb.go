// Package sqldb implements storage.Store on top of database/sql. The
// mysql, sqlite, and mssql backends differ only in quoting, placeholders,
// parameter caps, DDL, and foreign-key toggles, so each supplies a Dialect
// and shares this store.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"flightmart/internal/storage"
)

// Dialect captures everything backend-specific.
type Dialect struct {
	Name        string
	Quote       func(string) string
	Placeholder storage.PlaceholderFn
	MaxParams   int
	DDL         []string
	DisableFK   []string
	RestoreFK   []string

	// BulkInsert, when set, replaces the multi-row INSERT path inside a
	// transaction (mssql uses its bulk-copy protocol because of the low
	// parameter cap).
	BulkInsert func(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error
}

// Store is a database/sql-backed storage.Store.
type Store struct {
	db *sql.DB
	d  Dialect
}

// New wraps an open *sql.DB. The caller owns driver registration and DSN
// handling; backends expose their own Open.
func New(db *sql.DB, d Dialect) *Store { return &Store{db: db, d: d} }

// DB exposes the underlying handle for backend-specific setup.
func (s *Store) DB() *sql.DB { return s.db }

// EnsureSchema creates the star-schema tables if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.d.DDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (%s): %w", s.d.Name, err)
		}
	}
	return nil
}

// AppendRows inserts dimension rows with multi-row INSERTs, chunked to stay
// under the dialect's bind-parameter cap. Non-transactional per call.
func (s *Store) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	var total int64
	for _, c := range storage.StatementChunks(len(rows), len(columns), s.d.MaxParams) {
		chunk := rows[c.Start:c.End]
		stmt := storage.BuildInsert(table, columns, len(chunk), s.d.Quote, s.d.Placeholder)
		res, err := s.db.ExecContext(ctx, stmt, storage.Flatten(chunk)...)
		if err != nil {
			return total, fmt.Errorf("append %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		total += n
	}
	return total, nil
}

// QueryDimension reads back surrogate ids and natural-key columns.
func (s *Store) QueryDimension(ctx context.Context, table, idColumn string, keyColumns []string) ([]storage.DimensionRow, error) {
	cols := append([]string{idColumn}, keyColumns...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = s.d.Quote(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.d.Quote(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []storage.DimensionRow
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx (%s): %w", s.d.Name, err)
	}
	return &sqlTx{tx: tx, d: s.d}, nil
}

// DisableFKChecks relaxes referential checks for the bulk load. The sqlite
// and mysql toggles are session scoped, so those backends pin the pool to a
// single connection at Open.
func (s *Store) DisableFKChecks(ctx context.Context) error {
	return s.execAll(ctx, s.d.DisableFK)
}

// RestoreFKChecks reinstates referential checks after the load.
func (s *Store) RestoreFKChecks(ctx context.Context) error {
	return s.execAll(ctx, s.d.RestoreFK)
}

func (s *Store) execAll(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Count runs a single-value aggregate query.
func (s *Store) Count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *Store) Close(context.Context) error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
	d  Dialect
}

func (t *sqlTx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if t.d.BulkInsert != nil {
		if err := t.d.BulkInsert(ctx, t.tx, table, columns, rows); err != nil {
			return fmt.Errorf("bulk insert %s: %w", table, err)
		}
		return nil
	}
	for _, c := range storage.StatementChunks(len(rows), len(columns), t.d.MaxParams) {
		chunk := rows[c.Start:c.End]
		stmt := storage.BuildInsert(table, columns, len(chunk), t.d.Quote, t.d.Placeholder)
		if _, err := t.tx.ExecContext(ctx, stmt, storage.Flatten(chunk)...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (t *sqlTx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback tolerates a transaction already resolved by Commit, so callers
// can defer it unconditionally.
func (t *sqlTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
