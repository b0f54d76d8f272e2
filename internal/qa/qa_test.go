package qa

import (
	"context"
	"strings"
	"testing"

	"flightmart/internal/storage"
)

// fakeCounter answers Count queries by substring match and records every
// query it sees.
type fakeCounter struct {
	queries []string
	answers map[string]int64
}

func (f *fakeCounter) Count(_ context.Context, query string) (int64, error) {
	f.queries = append(f.queries, query)
	for sub, n := range f.answers {
		if strings.Contains(query, sub) {
			return n, nil
		}
	}
	return 0, nil
}

func TestRunCollectsCounts(t *testing.T) {
	t.Parallel()

	fc := &fakeCounter{answers: map[string]int64{
		`FROM "fact_flights" WHERE "is_cancelled" = TRUE AND "cancellation_id" IS NULL`:     2,
		`FROM "fact_flights" WHERE "is_cancelled" = TRUE AND "cancellation_id" IS NOT NULL`: 7,
		`FROM "airline"`: 14,
	}}

	r, err := Run(context.Background(), fc, ForDriver("postgres"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.TableCounts[storage.AirlineTable] != 14 {
		t.Errorf("airline count = %d, want 14", r.TableCounts[storage.AirlineTable])
	}
	if r.CancelledWithoutReason != 2 || r.CancelledWithReason != 7 {
		t.Errorf("cancelled = %d/%d, want 2/7", r.CancelledWithoutReason, r.CancelledWithReason)
	}

	// 5 table counts + 3 duplicate checks + 5 orphan + 5 null + 2 cancellation.
	if len(fc.queries) != 20 {
		t.Errorf("ran %d queries, want 20", len(fc.queries))
	}
}

func TestOrphanQueryIgnoresNullKeys(t *testing.T) {
	t.Parallel()

	fc := &fakeCounter{}
	if _, err := Run(context.Background(), fc, ForDriver("postgres")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var found bool
	for _, q := range fc.queries {
		if strings.Contains(q, "LEFT JOIN") && strings.Contains(q, `"airline_id"`) {
			found = true
			if !strings.Contains(q, `f."airline_id" IS NOT NULL`) {
				t.Errorf("orphan query must exclude null keys: %s", q)
			}
		}
	}
	if !found {
		t.Fatal("no orphan query for airline_id")
	}
}

func TestProblems(t *testing.T) {
	t.Parallel()

	r := &Report{
		DuplicateKeys:          map[string]int64{storage.AirlineTable: 1},
		Orphans:                map[string]int64{"date_id": 3},
		NullKeys:               map[string]int64{"airline_id": 99},
		CancelledWithoutReason: 2,
	}
	got := r.Problems()
	if len(got) != 3 {
		t.Fatalf("Problems = %v, want 3 entries", got)
	}
	for _, p := range got {
		if strings.Contains(p, "99") {
			t.Errorf("null keys must not be reported as problems: %q", p)
		}
	}
}

func TestForDriverDialects(t *testing.T) {
	t.Parallel()

	if d := ForDriver("mysql"); d.Quote("x") != "`x`" || d.True != "TRUE" {
		t.Errorf("mysql dialect: %q %q", d.Quote("x"), d.True)
	}
	if d := ForDriver("mssql"); d.Quote("x") != `"x"` || d.True != "1" {
		t.Errorf("mssql dialect: %q %q", d.Quote("x"), d.True)
	}
	if d := ForDriver("postgres"); d.True != "TRUE" {
		t.Errorf("postgres dialect true = %q", d.True)
	}
}
