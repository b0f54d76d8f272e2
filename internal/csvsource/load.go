package csvsource

import (
	"context"

	"golang.org/x/sync/errgroup"

	"flightmart/internal/domain"
)

// Sources holds the parsed contents of the three raw extracts.
type Sources struct {
	Airlines []domain.RawAirline
	Airports []domain.RawAirport
	Flights  []domain.RawFlight
}

// LoadAll reads the three extracts concurrently. Ingestion is the only
// parallel stage; everything downstream runs sequentially.
func LoadAll(ctx context.Context, airlinesPath, airportsPath, flightsPath string) (Sources, error) {
	var s Sources
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.Airlines, err = ReadAirlines(airlinesPath)
		return err
	})
	g.Go(func() error {
		var err error
		s.Airports, err = ReadAirports(airportsPath)
		return err
	})
	g.Go(func() error {
		var err error
		s.Flights, err = ReadFlights(flightsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return Sources{}, err
	}
	return s, nil
}
