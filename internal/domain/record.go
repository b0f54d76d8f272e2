// Package domain defines the typed records flowing through the pipeline:
// the raw CSV row shapes, the four dimension row types, and the fact row.
// Every column is an explicit struct field so a missing column is a compile
// error rather than a runtime surprise. Nullable columns use pointer types,
// mirroring their SQL NULLability.
package domain

// RawAirline is one row of the airlines CSV extract.
type RawAirline struct {
	IATACode string // IATA_CODE
	Name     string // AIRLINE
}

// RawAirport is one row of the airports CSV extract.
type RawAirport struct {
	IATACode  string // IATA_CODE
	Name      string // AIRPORT
	City      string
	State     string
	Country   string
	Latitude  *float64
	Longitude *float64
}

// RawFlight is one row of the flights CSV extract. Time-of-day columns stay
// as raw compact "HHMM" digit strings here; timecode.Normalize canonicalizes
// them during fact assembly.
type RawFlight struct {
	Year      int
	Month     int
	Day       int
	DayOfWeek int // 1..7, Monday-start

	Airline            string // airline IATA code
	FlightNumber       int
	TailNumber         string
	OriginAirport      string // airport IATA code
	DestinationAirport string // airport IATA code

	ScheduledDeparture string // compact HHMM
	DepartureTime      string // compact HHMM
	DepartureDelay     *int
	TaxiOut            *int
	WheelsOff          string // compact HHMM
	ScheduledTime      *int
	ElapsedTime        *int
	AirTime            *int
	Distance           *int
	WheelsOn           string // compact HHMM
	TaxiIn             *int
	ScheduledArrival   string // compact HHMM
	ArrivalTime        string // compact HHMM
	ArrivalDelay       *int

	Diverted           bool
	Cancelled          bool
	CancellationReason string // single-letter code; "" when not recorded
}
