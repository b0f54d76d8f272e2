// Package mysql backs storage.Store with MySQL via database/sql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"flightmart/internal/storage"
	"flightmart/internal/storage/sqldb"
)

// maxParams is the mysql prepared-statement placeholder cap.
const maxParams = 65535

var ddl = []string{
	"CREATE TABLE IF NOT EXISTS `airline` (" +
		" airline_id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		" airline_iata VARCHAR(8) NOT NULL UNIQUE," +
		" airline_name VARCHAR(255)" +
		")",
	"CREATE TABLE IF NOT EXISTS `airport` (" +
		" airport_id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		" iata_code VARCHAR(8) NOT NULL UNIQUE," +
		" airport_name VARCHAR(255)," +
		" city VARCHAR(128)," +
		" state VARCHAR(64)," +
		" country VARCHAR(64)," +
		" latitude DOUBLE," +
		" longitude DOUBLE" +
		")",
	"CREATE TABLE IF NOT EXISTS `date` (" +
		" date_id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		" year INT NOT NULL," +
		" month INT NOT NULL," +
		" day INT NOT NULL," +
		" day_of_week VARCHAR(16)," +
		" UNIQUE KEY uq_date (year, month, day)" +
		")",
	"CREATE TABLE IF NOT EXISTS `cancellation_reason` (" +
		" cancellation_id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		" cancellation_type VARCHAR(8) NOT NULL UNIQUE" +
		")",
	"CREATE TABLE IF NOT EXISTS `fact_flights` (" +
		" flight_id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		" flight_number INT," +
		" aircraft_id VARCHAR(16)," +
		" airline_id BIGINT," +
		" origin_airport_id BIGINT," +
		" destination_airport_id BIGINT," +
		" date_id BIGINT," +
		" cancellation_id BIGINT," +
		" scheduled_departure TIME," +
		" scheduled_time INT," +
		" departure_time TIME," +
		" departure_delay INT," +
		" taxi_out INT," +
		" wheels_off TIME," +
		" elapsed_time INT," +
		" air_time INT," +
		" distance INT," +
		" wheels_on TIME," +
		" taxi_in INT," +
		" scheduled_arrival TIME," +
		" arrival_time TIME," +
		" arrival_delay INT," +
		" is_diverted TINYINT(1)," +
		" is_cancelled TINYINT(1)," +
		" FOREIGN KEY (airline_id) REFERENCES `airline`(airline_id)," +
		" FOREIGN KEY (origin_airport_id) REFERENCES `airport`(airport_id)," +
		" FOREIGN KEY (destination_airport_id) REFERENCES `airport`(airport_id)," +
		" FOREIGN KEY (date_id) REFERENCES `date`(date_id)," +
		" FOREIGN KEY (cancellation_id) REFERENCES `cancellation_reason`(cancellation_id)" +
		")",
}

// Dialect is the MySQL flavor for the shared database/sql store.
var Dialect = sqldb.Dialect{
	Name:        "mysql",
	Quote:       storage.BacktickIdent,
	Placeholder: storage.QuestionPlaceholder,
	MaxParams:   maxParams,
	DDL:         ddl,
	DisableFK:   []string{"SET FOREIGN_KEY_CHECKS = 0"},
	RestoreFK:   []string{"SET FOREIGN_KEY_CHECKS = 1"},
}

// Open connects using a go-sql-driver DSN, for example
// "user:pass@tcp(localhost:3306)/flightmart?parseTime=true".
func Open(ctx context.Context, dsn string) (*sqldb.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql: dsn must not be empty")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	// SET FOREIGN_KEY_CHECKS is session scoped; pin the pool to one
	// connection so the toggle reaches the session that runs the load.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return sqldb.New(db, Dialect), nil
}
