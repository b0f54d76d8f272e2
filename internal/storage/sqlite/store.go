// Package sqlite backs storage.Store with SQLite via database/sql. There is
// no bulk-load API; batched multi-row INSERTs inside a transaction keep
// performance acceptable for moderate volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo

	"flightmart/internal/storage"
	"flightmart/internal/storage/sqldb"
)

// maxParams is SQLITE_MAX_VARIABLE_NUMBER for modern SQLite builds.
const maxParams = 32766

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS "airline" (
		airline_id INTEGER PRIMARY KEY,
		airline_iata TEXT NOT NULL UNIQUE,
		airline_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS "airport" (
		airport_id INTEGER PRIMARY KEY,
		iata_code TEXT NOT NULL UNIQUE,
		airport_name TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS "date" (
		date_id INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		day_of_week TEXT,
		UNIQUE (year, month, day)
	)`,
	`CREATE TABLE IF NOT EXISTS "cancellation_reason" (
		cancellation_id INTEGER PRIMARY KEY,
		cancellation_type TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS "fact_flights" (
		flight_id INTEGER PRIMARY KEY,
		flight_number INTEGER,
		aircraft_id TEXT,
		airline_id INTEGER REFERENCES "airline"(airline_id),
		origin_airport_id INTEGER REFERENCES "airport"(airport_id),
		destination_airport_id INTEGER REFERENCES "airport"(airport_id),
		date_id INTEGER REFERENCES "date"(date_id),
		cancellation_id INTEGER REFERENCES "cancellation_reason"(cancellation_id),
		scheduled_departure TEXT,
		scheduled_time INTEGER,
		departure_time TEXT,
		departure_delay INTEGER,
		taxi_out INTEGER,
		wheels_off TEXT,
		elapsed_time INTEGER,
		air_time INTEGER,
		distance INTEGER,
		wheels_on TEXT,
		taxi_in INTEGER,
		scheduled_arrival TEXT,
		arrival_time TEXT,
		arrival_delay INTEGER,
		is_diverted INTEGER,
		is_cancelled INTEGER
	)`,
}

// Dialect is the SQLite flavor for the shared database/sql store.
var Dialect = sqldb.Dialect{
	Name:        "sqlite",
	Quote:       storage.QuoteIdent,
	Placeholder: storage.QuestionPlaceholder,
	MaxParams:   maxParams,
	DDL:         ddl,
	DisableFK:   []string{"PRAGMA foreign_keys = OFF"},
	RestoreFK:   []string{"PRAGMA foreign_keys = ON"},
}

// Open opens (or creates) the database at the given DSN, for example
// "flightmart.db" or ":memory:".
func Open(ctx context.Context, dsn string) (*sqldb.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: dsn must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// foreign_keys is a per-connection pragma and every :memory: connection
	// is a separate database, so the pool must stay on one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return sqldb.New(db, Dialect), nil
}
