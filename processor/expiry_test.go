package processor

import (
	"testing"
	"time"

	"derivflow/config"
	"derivflow/models"
)

func TestNextExpiryStrictlyFuture(t *testing.T) {
	// 2026-03-26 is a Thursday: asking for next Thursday on a Thursday must
	// give the following week, never today.
	thursday := time.Date(2026, 3, 26, 10, 0, 0, 0, time.UTC)
	got := NextExpiry(thursday, time.Thursday)
	want := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextExpiry on expiry weekday = %v, want %v", got, want)
	}
}

func TestNextExpiryMidWeek(t *testing.T) {
	monday := time.Date(2026, 3, 23, 10, 0, 0, 0, time.UTC)
	got := NextExpiry(monday, time.Thursday)
	want := time.Date(2026, 3, 26, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextExpiry from Monday = %v, want %v", got, want)
	}
}

func TestFormatExpiry(t *testing.T) {
	d := time.Date(2026, 3, 26, 0, 0, 0, 0, time.UTC)
	if got := FormatExpiry(d); got != "26-Mar-2026" {
		t.Fatalf("FormatExpiry = %q", got)
	}
}

func TestDistinctExpiriesCalendarOrder(t *testing.T) {
	// String order would put "05-Feb-2026" first; calendar order must not.
	rows := []models.Row{
		{ExpiryDate: "05-Feb-2026"},
		{ExpiryDate: "29-Jan-2026"},
		{ExpiryDate: "05-Feb-2026"},
		{ExpiryDate: "26-Mar-2026"},
	}
	got := DistinctExpiries(rows)
	want := []string{"29-Jan-2026", "05-Feb-2026", "26-Mar-2026"}
	if len(got) != len(want) {
		t.Fatalf("DistinctExpiries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DistinctExpiries = %v, want %v", got, want)
		}
	}
}

func TestEarliestExpiry(t *testing.T) {
	rows := []models.Row{
		{ExpiryDate: "05-Feb-2026"},
		{ExpiryDate: "29-Jan-2026"},
	}
	got, ok := EarliestExpiry(rows)
	if !ok || got != "29-Jan-2026" {
		t.Fatalf("EarliestExpiry = %q, %v", got, ok)
	}

	if _, ok := EarliestExpiry(nil); ok {
		t.Fatalf("EarliestExpiry of no rows must report absence")
	}
}

func TestSelectExpiry(t *testing.T) {
	monday := time.Date(2026, 3, 23, 10, 0, 0, 0, time.UTC)
	rows := []models.Row{{ExpiryDate: "30-Apr-2026"}, {ExpiryDate: "26-Mar-2026"}}

	nearest := config.SourceConfig{ExpiryMode: config.ExpiryModeNearest}
	if got, ok := SelectExpiry(nearest, rows, monday, time.Thursday); !ok || got != "26-Mar-2026" {
		t.Errorf("nearest mode = %q, %v", got, ok)
	}

	earliest := config.SourceConfig{ExpiryMode: config.ExpiryModeEarliest}
	if got, ok := SelectExpiry(earliest, rows, monday, time.Thursday); !ok || got != "26-Mar-2026" {
		t.Errorf("earliest mode = %q, %v", got, ok)
	}
}

func TestFilterByExpiry(t *testing.T) {
	rows := []models.Row{
		{StrikePrice: 48000, ExpiryDate: "26-Mar-2026"},
		{StrikePrice: 0, ExpiryDate: "26-Mar-2026"},
		{StrikePrice: 48500, ExpiryDate: "30-Apr-2026"},
		{StrikePrice: 49000, ExpiryDate: "26-Mar-2026"},
	}
	got := FilterByExpiry(rows, "26-Mar-2026")
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(got), got)
	}
	for _, r := range got {
		if r.StrikePrice == 0 {
			t.Errorf("zero-strike row must never survive the filter")
		}
		if r.ExpiryDate != "26-Mar-2026" {
			t.Errorf("wrong expiry kept: %q", r.ExpiryDate)
		}
	}
}
