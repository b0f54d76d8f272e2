// Package fact assembles the flat fact rows: passthrough numeric and flag
// columns from the raw flight records, canonicalized time-of-day columns,
// and the surrogate ids resolved against the dimension lookup maps. The
// original natural-key and decomposed date columns do not survive assembly;
// only the resolved ids do.
package fact

import (
	"fmt"

	"flightmart/internal/domain"
	"flightmart/internal/resolver"
	"flightmart/internal/timecode"
)

// Table is the fact table name.
const Table = "fact_flights"

// columns is the fact table's column contract, in insert order. Row()
// produces values in exactly this order; the two are checked against each
// other before any load is attempted.
var columns = []string{
	"flight_number",
	"aircraft_id",
	"airline_id",
	"origin_airport_id",
	"destination_airport_id",
	"date_id",
	"cancellation_id",
	"scheduled_departure",
	"scheduled_time",
	"departure_time",
	"departure_delay",
	"taxi_out",
	"wheels_off",
	"elapsed_time",
	"air_time",
	"distance",
	"wheels_on",
	"taxi_in",
	"scheduled_arrival",
	"arrival_time",
	"arrival_delay",
	"is_diverted",
	"is_cancelled",
}

// Columns returns the fact column contract in insert order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Assemble builds one FactFlight per raw flight row. Under MissFail the
// first unresolvable foreign key aborts with an error; under MissReport the
// returned report lists every distinct missing key. Under MissNull the
// report is empty and unresolvable keys silently become NULL ids.
func Assemble(raw []domain.RawFlight, keys resolver.Keys, policy resolver.MissPolicy) ([]domain.FactFlight, *resolver.Report, error) {
	if len(Row(domain.FactFlight{})) != len(columns) {
		// Column contract drifted from the row shape; refuse to build
		// anything loadable.
		return nil, nil, fmt.Errorf("fact row has %d values for %d columns", len(Row(domain.FactFlight{})), len(columns))
	}

	report := &resolver.Report{}
	out := make([]domain.FactFlight, 0, len(raw))
	for i, r := range raw {
		f := domain.FactFlight{
			FlightNumber: r.FlightNumber,
			AircraftID:   strOrNil(r.TailNumber),

			ScheduledDeparture: normTime(r.ScheduledDeparture),
			ScheduledTime:      r.ScheduledTime,
			DepartureTime:      normTime(r.DepartureTime),
			DepartureDelay:     r.DepartureDelay,
			TaxiOut:            r.TaxiOut,
			WheelsOff:          normTime(r.WheelsOff),
			ElapsedTime:        r.ElapsedTime,
			AirTime:            r.AirTime,
			Distance:           r.Distance,
			WheelsOn:           normTime(r.WheelsOn),
			TaxiIn:             r.TaxiIn,
			ScheduledArrival:   normTime(r.ScheduledArrival),
			ArrivalTime:        normTime(r.ArrivalTime),
			ArrivalDelay:       r.ArrivalDelay,

			Diverted:  r.Diverted,
			Cancelled: r.Cancelled,
		}

		var err error
		if f.AirlineID, err = resolve(keys.Airline, r.Airline, "airline", policy, report); err != nil {
			return nil, nil, fmt.Errorf("flight row %d: %w", i, err)
		}
		if f.OriginAirportID, err = resolve(keys.Airport, r.OriginAirport, "airport", policy, report); err != nil {
			return nil, nil, fmt.Errorf("flight row %d: %w", i, err)
		}
		if f.DestinationAirportID, err = resolve(keys.Airport, r.DestinationAirport, "airport", policy, report); err != nil {
			return nil, nil, fmt.Errorf("flight row %d: %w", i, err)
		}

		id, ok := keys.Date(r.Year, r.Month, r.Day)
		switch {
		case ok:
			f.DateID = &id
		case policy == resolver.MissFail:
			return nil, nil, fmt.Errorf("flight row %d: no date dimension row for %04d-%02d-%02d", i, r.Year, r.Month, r.Day)
		case policy == resolver.MissReport:
			report.Record("date", fmt.Sprintf("%04d-%02d-%02d", r.Year, r.Month, r.Day))
		}

		// A flight without a recorded reason legitimately has no
		// cancellation row; that is never a miss.
		if r.CancellationReason != "" {
			if f.CancellationID, err = resolve(keys.Cancellation, r.CancellationReason, "cancellation_reason", policy, report); err != nil {
				return nil, nil, fmt.Errorf("flight row %d: %w", i, err)
			}
		}

		out = append(out, f)
	}
	return out, report, nil
}

func resolve(lookup func(string) (int64, bool), key, dimension string, policy resolver.MissPolicy, report *resolver.Report) (*int64, error) {
	if id, ok := lookup(key); ok {
		return &id, nil
	}
	switch policy {
	case resolver.MissFail:
		return nil, fmt.Errorf("no %s dimension row for key %q", dimension, key)
	case resolver.MissReport:
		report.Record(dimension, key)
	}
	return nil, nil
}

func normTime(s string) *string {
	if canonical, ok := timecode.Normalize(s); ok {
		return &canonical
	}
	return nil
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Rows converts the assembled facts into the storage-native [][]any shape.
func Rows(facts []domain.FactFlight) [][]any {
	out := make([][]any, len(facts))
	for i := range facts {
		out[i] = Row(facts[i])
	}
	return out
}

// Row converts one fact into storage-native scalars aligned with Columns():
// nil pointers become NULL, everything else is unwrapped to its plain value.
func Row(f domain.FactFlight) []any {
	return []any{
		f.FlightNumber,
		native(f.AircraftID),
		native(f.AirlineID),
		native(f.OriginAirportID),
		native(f.DestinationAirportID),
		native(f.DateID),
		native(f.CancellationID),
		native(f.ScheduledDeparture),
		native(f.ScheduledTime),
		native(f.DepartureTime),
		native(f.DepartureDelay),
		native(f.TaxiOut),
		native(f.WheelsOff),
		native(f.ElapsedTime),
		native(f.AirTime),
		native(f.Distance),
		native(f.WheelsOn),
		native(f.TaxiIn),
		native(f.ScheduledArrival),
		native(f.ArrivalTime),
		native(f.ArrivalDelay),
		f.Diverted,
		f.Cancelled,
	}
}

// native unwraps pointer wrappers to the plain value drivers expect; nil
// pointers map to SQL NULL.
func native[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
