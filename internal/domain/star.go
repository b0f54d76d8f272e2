package domain

// Airline is a row of the airline dimension, keyed by IATA code.
type Airline struct {
	IATACode string
	Name     string
}

// Airport is a row of the airport dimension, keyed by IATA code.
type Airport struct {
	IATACode  string
	Name      string
	City      string
	State     string
	Country   string
	Latitude  *float64
	Longitude *float64
}

// Date is a row of the date dimension. The natural key is the composite
// (Year, Month, Day); DayOfWeek is the derived weekday name.
type Date struct {
	Year      int
	Month     int
	Day       int
	DayOfWeek string
}

// CancellationReason is a row of the cancellation-reason dimension.
type CancellationReason struct {
	Code string
}

// FactFlight is one assembled fact row. Surrogate-id columns are nil when
// the natural key could not be resolved (cancellation additionally when the
// flight was not cancelled). Time-of-day columns hold canonical "HH:MM:SS"
// strings or nil.
type FactFlight struct {
	FlightNumber int
	AircraftID   *string

	AirlineID            *int64
	OriginAirportID      *int64
	DestinationAirportID *int64
	DateID               *int64
	CancellationID       *int64

	ScheduledDeparture *string
	ScheduledTime      *int
	DepartureTime      *string
	DepartureDelay     *int
	TaxiOut            *int
	WheelsOff          *string
	ElapsedTime        *int
	AirTime            *int
	Distance           *int
	WheelsOn           *string
	TaxiIn             *int
	ScheduledArrival   *string
	ArrivalTime        *string
	ArrivalDelay       *int

	Diverted  bool
	Cancelled bool
}
