package storage

// Table names of the star schema.
const (
	AirlineTable      = "airline"
	AirportTable      = "airport"
	DateTable         = "date"
	CancellationTable = "cancellation_reason"
	FactTable         = "fact_flights"
)

// Dimension describes one dimension table: its surrogate-id column, the
// natural-key columns (read back for lookup maps), and the columns written
// on append. The id column is store-assigned and never inserted.
type Dimension struct {
	Table         string
	IDColumn      string
	KeyColumns    []string
	InsertColumns []string
}

var (
	AirlineDim = Dimension{
		Table:         AirlineTable,
		IDColumn:      "airline_id",
		KeyColumns:    []string{"airline_iata"},
		InsertColumns: []string{"airline_iata", "airline_name"},
	}
	AirportDim = Dimension{
		Table:         AirportTable,
		IDColumn:      "airport_id",
		KeyColumns:    []string{"iata_code"},
		InsertColumns: []string{"iata_code", "airport_name", "city", "state", "country", "latitude", "longitude"},
	}
	DateDim = Dimension{
		Table:         DateTable,
		IDColumn:      "date_id",
		KeyColumns:    []string{"year", "month", "day"},
		InsertColumns: []string{"year", "month", "day", "day_of_week"},
	}
	CancellationDim = Dimension{
		Table:         CancellationTable,
		IDColumn:      "cancellation_id",
		KeyColumns:    []string{"cancellation_type"},
		InsertColumns: []string{"cancellation_type"},
	}
)

// Dimensions lists the four dimensions in load order.
func Dimensions() []Dimension {
	return []Dimension{AirlineDim, AirportDim, DateDim, CancellationDim}
}
