// Package resolver builds natural-key -> surrogate-id lookup maps from the
// persisted dimension rows and resolves fact-row natural keys against them.
//
// A lookup miss is not automatically an error: the configured MissPolicy
// decides whether the run degrades the foreign key to NULL ("null", the
// historical behavior), aborts on the first miss ("fail"), or degrades to
// NULL while collecting a per-dimension report of the missing keys
// ("report").
package resolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MissPolicy selects what happens when a natural key has no dimension row.
type MissPolicy int

const (
	// MissNull resolves unmatched keys to NULL and keeps going.
	MissNull MissPolicy = iota
	// MissFail aborts assembly on the first unmatched key.
	MissFail
	// MissReport resolves to NULL but records every distinct missing key.
	MissReport
)

// ParseMissPolicy maps the config string to a MissPolicy.
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null":
		return MissNull, nil
	case "fail":
		return MissFail, nil
	case "report":
		return MissReport, nil
	}
	return MissNull, fmt.Errorf("unknown miss policy %q (want null, fail, or report)", s)
}

func (p MissPolicy) String() string {
	switch p {
	case MissFail:
		return "fail"
	case MissReport:
		return "report"
	default:
		return "null"
	}
}

// DimRow is one persisted dimension row as read back from the store:
// the surrogate id plus the natural-key columns in declaration order,
// rendered as strings.
type DimRow struct {
	ID  int64
	Key []string
}

// DateKey is the composite natural key of the date dimension.
type DateKey struct {
	Year  int
	Month int
	Day   int
}

// Keys holds the lookup maps for all four dimensions. The airport map is
// shared by the origin and destination fact roles.
type Keys struct {
	Airlines      map[string]int64
	Airports      map[string]int64
	Dates         map[DateKey]int64
	Cancellations map[string]int64
}

// NewKeys builds the lookup maps from the four read-back row sets. Date rows
// must carry exactly (year, month, day) as their key columns; a malformed
// read-back indicates store corruption and is an error.
func NewKeys(airlines, airports, dates, cancellations []DimRow) (Keys, error) {
	k := Keys{
		Airlines:      make(map[string]int64, len(airlines)),
		Airports:      make(map[string]int64, len(airports)),
		Dates:         make(map[DateKey]int64, len(dates)),
		Cancellations: make(map[string]int64, len(cancellations)),
	}
	for _, r := range airlines {
		if len(r.Key) != 1 {
			return Keys{}, fmt.Errorf("airline dimension row %d: %d key columns, want 1", r.ID, len(r.Key))
		}
		k.Airlines[r.Key[0]] = r.ID
	}
	for _, r := range airports {
		if len(r.Key) != 1 {
			return Keys{}, fmt.Errorf("airport dimension row %d: %d key columns, want 1", r.ID, len(r.Key))
		}
		k.Airports[r.Key[0]] = r.ID
	}
	for _, r := range dates {
		dk, err := parseDateKey(r.Key)
		if err != nil {
			return Keys{}, fmt.Errorf("date dimension row %d: %w", r.ID, err)
		}
		k.Dates[dk] = r.ID
	}
	for _, r := range cancellations {
		if len(r.Key) != 1 {
			return Keys{}, fmt.Errorf("cancellation dimension row %d: %d key columns, want 1", r.ID, len(r.Key))
		}
		k.Cancellations[r.Key[0]] = r.ID
	}
	return k, nil
}

func parseDateKey(key []string) (DateKey, error) {
	if len(key) != 3 {
		return DateKey{}, fmt.Errorf("%d key columns, want 3", len(key))
	}
	var parts [3]int
	for i, s := range key {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return DateKey{}, fmt.Errorf("key column %d: %w", i, err)
		}
		parts[i] = n
	}
	return DateKey{Year: parts[0], Month: parts[1], Day: parts[2]}, nil
}

// Airline resolves an airline IATA code.
func (k Keys) Airline(code string) (int64, bool) { id, ok := k.Airlines[code]; return id, ok }

// Airport resolves an airport IATA code. Origin and destination lookups both
// go through this one map.
func (k Keys) Airport(code string) (int64, bool) { id, ok := k.Airports[code]; return id, ok }

// Date resolves a (year, month, day) tuple.
func (k Keys) Date(year, month, day int) (int64, bool) {
	id, ok := k.Dates[DateKey{Year: year, Month: month, Day: day}]
	return id, ok
}

// Cancellation resolves a cancellation-reason code.
func (k Keys) Cancellation(code string) (int64, bool) {
	id, ok := k.Cancellations[code]
	return id, ok
}

// Report accumulates distinct missing natural keys per dimension with
// occurrence counts. The zero value is ready to use.
type Report struct {
	counts map[string]map[string]int
	total  int
}

// Record notes one unresolved lookup.
func (r *Report) Record(dimension, key string) {
	if r.counts == nil {
		r.counts = make(map[string]map[string]int)
	}
	if r.counts[dimension] == nil {
		r.counts[dimension] = make(map[string]int)
	}
	r.counts[dimension][key]++
	r.total++
}

// Total returns the number of unresolved lookups recorded.
func (r *Report) Total() int { return r.total }

// Lines renders the report one dimension per line, keys sorted, for logging.
func (r *Report) Lines() []string {
	dims := make([]string, 0, len(r.counts))
	for d := range r.counts {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var out []string
	for _, d := range dims {
		keys := make([]string, 0, len(r.counts[d]))
		for k := range r.counts[d] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, r.counts[d][k]))
		}
		out = append(out, fmt.Sprintf("%s: %s", d, strings.Join(parts, ", ")))
	}
	return out
}
