// Package dimension extracts deduplicated dimension rows from the raw CSV
// records. Builders are pure: they never mutate their input and return fresh
// slices, so stages can be re-run or reordered safely.
//
// Duplicate detection hashes a canonical encoding of each row's natural key
// with xxh3 and keeps the first occurrence, preserving input order.
package dimension

import (
	"strings"

	"github.com/zeebo/xxh3"

	"flightmart/internal/domain"
)

// weekdayNames maps the source's Monday-start day-of-week code to its name.
var weekdayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// WeekdayName returns the fixed weekday name for a 1..7 day-of-week code,
// or "" for codes outside that range.
func WeekdayName(code int) string { return weekdayNames[code] }

// rowKey hashes the fields joined with an unlikely separator, the same
// scheme the line-dedup tooling uses for whole-record identity.
func rowKey(fields ...string) uint64 {
	return xxh3.Hash([]byte(strings.Join(fields, "\x1f")))
}

// Airlines collapses the airline rows to one row per IATA code.
func Airlines(in []domain.RawAirline) []domain.Airline {
	seen := make(map[uint64]struct{}, len(in))
	out := make([]domain.Airline, 0, len(in))
	for _, r := range in {
		k := rowKey(r.IATACode)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Airline{IATACode: r.IATACode, Name: r.Name})
	}
	return out
}

// Airports collapses the airport rows to one row per IATA code.
func Airports(in []domain.RawAirport) []domain.Airport {
	seen := make(map[uint64]struct{}, len(in))
	out := make([]domain.Airport, 0, len(in))
	for _, r := range in {
		k := rowKey(r.IATACode)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Airport{
			IATACode:  r.IATACode,
			Name:      r.Name,
			City:      r.City,
			State:     r.State,
			Country:   r.Country,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return out
}

// Dates extracts the distinct (year, month, day) tuples appearing in the
// flight rows and derives the weekday name from the numeric code.
func Dates(in []domain.RawFlight) []domain.Date {
	seen := make(map[uint64]struct{}, 366)
	out := make([]domain.Date, 0, 366)
	for _, r := range in {
		k := rowKey(itoa(r.Year), itoa(r.Month), itoa(r.Day))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Date{
			Year:      r.Year,
			Month:     r.Month,
			Day:       r.Day,
			DayOfWeek: WeekdayName(r.DayOfWeek),
		})
	}
	return out
}

// CancellationReasons extracts the distinct cancellation codes. Rows without
// a recorded reason contribute nothing.
func CancellationReasons(in []domain.RawFlight) []domain.CancellationReason {
	seen := make(map[uint64]struct{}, 8)
	out := make([]domain.CancellationReason, 0, 8)
	for _, r := range in {
		if strings.TrimSpace(r.CancellationReason) == "" {
			continue
		}
		k := rowKey(r.CancellationReason)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.CancellationReason{Code: r.CancellationReason})
	}
	return out
}

// itoa avoids strconv for the tiny non-negative ints in date keys.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}
