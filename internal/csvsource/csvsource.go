// Package csvsource reads the three raw CSV extracts (airlines, airports,
// flights) into typed records. It is a thin ingestion layer: header names
// are canonicalized, numeric columns parse leniently (blank or malformed
// values become nil), and rows keep their file order.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flightmart/internal/domain"
)

const utf8BOM = "\ufeff"

// header holds the canonical-name -> column-index mapping for one file.
type header map[string]int

// index returns the column index for canonical name, or an error naming the
// missing column.
func (h header) index(name string) (int, error) {
	i, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("missing column %q", name)
	}
	return i, nil
}

// canonicalFieldName lowercases a header cell, strips accents, and squashes
// everything outside [a-z0-9] to single underscores. "IATA_CODE" and
// "iata code" both canonicalize to "iata_code".
func canonicalFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, utf8BOM)))

	// Decompose, remove nonspacing marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

func readHeader(cr *csv.Reader) (header, error) {
	cells, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(cells))
	for i, c := range cells {
		h[canonicalFieldName(c)] = i
	}
	return h, nil
}

// cell returns the trimmed value at index i, or "" for short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// intOrZero parses an int, degrading to 0 on blank/malformed input.
func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// intPtr parses a numeric cell into *int; blank or malformed input is nil.
// The extracts encode some counts as "12.0", so a float form is accepted
// and truncated.
func intPtr(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func floatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// flag parses the extracts' 0/1 flag encoding.
func flag(s string) bool { return s == "1" }

// ReadAirlines parses the airlines extract.
func ReadAirlines(path string) ([]domain.RawAirline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airlines csv: %w", err)
	}
	defer f.Close()
	return ParseAirlines(f)
}

// ParseAirlines parses airline rows from r.
func ParseAirlines(r io.Reader) ([]domain.RawAirline, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("airlines: %w", err)
	}
	iata, err := h.index("iata_code")
	if err != nil {
		return nil, fmt.Errorf("airlines: %w", err)
	}
	name, err := h.index("airline")
	if err != nil {
		return nil, fmt.Errorf("airlines: %w", err)
	}

	var out []domain.RawAirline
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("airlines row %d: %w", len(out)+2, err)
		}
		out = append(out, domain.RawAirline{
			IATACode: cell(row, iata),
			Name:     cell(row, name),
		})
	}
}

// ReadAirports parses the airports extract.
func ReadAirports(path string) ([]domain.RawAirport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports csv: %w", err)
	}
	defer f.Close()
	return ParseAirports(f)
}

// ParseAirports parses airport rows from r.
func ParseAirports(r io.Reader) ([]domain.RawAirport, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("airports: %w", err)
	}
	cols := struct{ iata, name, city, state, country, lat, lon int }{}
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"iata_code", &cols.iata},
		{"airport", &cols.name},
		{"city", &cols.city},
		{"state", &cols.state},
		{"country", &cols.country},
		{"latitude", &cols.lat},
		{"longitude", &cols.lon},
	} {
		if *c.dst, err = h.index(c.name); err != nil {
			return nil, fmt.Errorf("airports: %w", err)
		}
	}

	var out []domain.RawAirport
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("airports row %d: %w", len(out)+2, err)
		}
		out = append(out, domain.RawAirport{
			IATACode:  cell(row, cols.iata),
			Name:      cell(row, cols.name),
			City:      cell(row, cols.city),
			State:     cell(row, cols.state),
			Country:   cell(row, cols.country),
			Latitude:  floatPtr(cell(row, cols.lat)),
			Longitude: floatPtr(cell(row, cols.lon)),
		})
	}
}

// ReadFlights parses the flights extract.
func ReadFlights(path string) ([]domain.RawFlight, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flights csv: %w", err)
	}
	defer f.Close()
	return ParseFlights(f)
}

// flightColumns are the canonical flight headers we consume, in source order.
var flightColumns = []string{
	"year", "month", "day", "day_of_week",
	"airline", "flight_number", "tail_number",
	"origin_airport", "destination_airport",
	"scheduled_departure", "departure_time", "departure_delay",
	"taxi_out", "wheels_off", "scheduled_time", "elapsed_time",
	"air_time", "distance", "wheels_on", "taxi_in",
	"scheduled_arrival", "arrival_time", "arrival_delay",
	"diverted", "cancelled", "cancellation_reason",
}

// ParseFlights parses flight rows from r.
func ParseFlights(r io.Reader) ([]domain.RawFlight, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("flights: %w", err)
	}
	idx := make(map[string]int, len(flightColumns))
	for _, name := range flightColumns {
		i, err := h.index(name)
		if err != nil {
			return nil, fmt.Errorf("flights: %w", err)
		}
		idx[name] = i
	}

	var out []domain.RawFlight
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("flights row %d: %w", len(out)+2, err)
		}
		get := func(name string) string { return cell(row, idx[name]) }
		out = append(out, domain.RawFlight{
			Year:      intOrZero(get("year")),
			Month:     intOrZero(get("month")),
			Day:       intOrZero(get("day")),
			DayOfWeek: intOrZero(get("day_of_week")),

			Airline:            get("airline"),
			FlightNumber:       intOrZero(get("flight_number")),
			TailNumber:         get("tail_number"),
			OriginAirport:      get("origin_airport"),
			DestinationAirport: get("destination_airport"),

			ScheduledDeparture: get("scheduled_departure"),
			DepartureTime:      get("departure_time"),
			DepartureDelay:     intPtr(get("departure_delay")),
			TaxiOut:            intPtr(get("taxi_out")),
			WheelsOff:          get("wheels_off"),
			ScheduledTime:      intPtr(get("scheduled_time")),
			ElapsedTime:        intPtr(get("elapsed_time")),
			AirTime:            intPtr(get("air_time")),
			Distance:           intPtr(get("distance")),
			WheelsOn:           get("wheels_on"),
			TaxiIn:             intPtr(get("taxi_in")),
			ScheduledArrival:   get("scheduled_arrival"),
			ArrivalTime:        get("arrival_time"),
			ArrivalDelay:       intPtr(get("arrival_delay")),

			Diverted:           flag(get("diverted")),
			Cancelled:          flag(get("cancelled")),
			CancellationReason: get("cancellation_reason"),
		})
	}
}
