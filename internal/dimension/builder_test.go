package dimension

import (
	"testing"

	"flightmart/internal/domain"
)

func TestAirlinesDedup(t *testing.T) {
	t.Parallel()

	in := []domain.RawAirline{
		{IATACode: "AA", Name: "American Airlines Inc."},
		{IATACode: "DL", Name: "Delta Air Lines Inc."},
		{IATACode: "AA", Name: "American Airlines Inc."},
	}
	got := Airlines(in)
	if len(got) != 2 {
		t.Fatalf("got %d airlines, want 2", len(got))
	}
	if got[0].IATACode != "AA" || got[1].IATACode != "DL" {
		t.Errorf("order not preserved: %+v", got)
	}

	// Builder must not mutate its input.
	if in[2].IATACode != "AA" {
		t.Errorf("input mutated: %+v", in)
	}
}

func TestAirportsDedupKeepsFirst(t *testing.T) {
	t.Parallel()

	lat := 61.17
	in := []domain.RawAirport{
		{IATACode: "ANC", Name: "Ted Stevens Anchorage International Airport", City: "Anchorage", State: "AK", Country: "USA", Latitude: &lat},
		{IATACode: "ANC", Name: "Anchorage Intl (renamed)", City: "Anchorage", State: "AK", Country: "USA"},
		{IATACode: "LAX", Name: "Los Angeles International Airport", City: "Los Angeles", State: "CA", Country: "USA"},
	}
	got := Airports(in)
	if len(got) != 2 {
		t.Fatalf("got %d airports, want 2", len(got))
	}
	if got[0].Name != "Ted Stevens Anchorage International Airport" {
		t.Errorf("first occurrence should win, got %q", got[0].Name)
	}
	if got[0].Latitude == nil || *got[0].Latitude != lat {
		t.Errorf("latitude not carried through: %+v", got[0])
	}
}

func TestDates(t *testing.T) {
	t.Parallel()

	in := []domain.RawFlight{
		{Year: 2015, Month: 1, Day: 1, DayOfWeek: 4},
		{Year: 2015, Month: 1, Day: 1, DayOfWeek: 4},
		{Year: 2015, Month: 1, Day: 2, DayOfWeek: 5},
	}
	got := Dates(in)
	if len(got) != 2 {
		t.Fatalf("got %d dates, want 2", len(got))
	}
	if got[0].DayOfWeek != "Thursday" || got[1].DayOfWeek != "Friday" {
		t.Errorf("weekday mapping wrong: %+v", got)
	}
}

// TestWeekdayName checks the 1..7 -> Monday..Sunday bijection.
func TestWeekdayName(t *testing.T) {
	t.Parallel()

	want := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	seen := map[string]bool{}
	for code := 1; code <= 7; code++ {
		name := WeekdayName(code)
		if name != want[code-1] {
			t.Errorf("WeekdayName(%d) = %q, want %q", code, name, want[code-1])
		}
		if seen[name] {
			t.Errorf("weekday %q mapped twice", name)
		}
		seen[name] = true
	}
	if WeekdayName(0) != "" || WeekdayName(8) != "" {
		t.Error("out-of-range codes must map to empty string")
	}
}

func TestCancellationReasonsDropsMissing(t *testing.T) {
	t.Parallel()

	in := []domain.RawFlight{
		{CancellationReason: "A"},
		{CancellationReason: ""},
		{CancellationReason: "B"},
		{CancellationReason: "A"},
		{CancellationReason: "   "},
	}
	got := CancellationReasons(in)
	if len(got) != 2 {
		t.Fatalf("got %d reasons, want 2", len(got))
	}
	if got[0].Code != "A" || got[1].Code != "B" {
		t.Errorf("unexpected reasons: %+v", got)
	}
}
