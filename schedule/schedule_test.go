package schedule

import (
	"testing"
	"time"

	"derivflow/config"
)

func marketWindow(t *testing.T) *Window {
	t.Helper()
	w, err := NewWindow(config.WindowConfig{
		Open:     "09:15",
		Close:    "15:40",
		Weekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	})
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return w
}

func TestWindowBoundariesInclusive(t *testing.T) {
	w := marketWindow(t)

	// 2026-03-23 is a Monday.
	day := time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		hour, min, sec int
		want           bool
	}{
		{9, 15, 0, true},   // exactly at open
		{9, 14, 59, false}, // one second before open
		{15, 40, 0, true},  // exactly at close
		{15, 40, 59, true}, // still inside the closing minute
		{15, 41, 0, false}, // past close
		{12, 0, 0, true},
		{8, 0, 0, false},
	}
	for _, tc := range cases {
		ts := day.Add(time.Duration(tc.hour)*time.Hour + time.Duration(tc.min)*time.Minute + time.Duration(tc.sec)*time.Second)
		if got := w.IsOpen(ts); got != tc.want {
			t.Errorf("IsOpen(%02d:%02d:%02d) = %v, want %v", tc.hour, tc.min, tc.sec, got, tc.want)
		}
	}
}

func TestWindowIneligibleWeekday(t *testing.T) {
	w := marketWindow(t)

	// 2026-03-28 is a Saturday.
	saturday := time.Date(2026, 3, 28, 10, 0, 0, 0, time.UTC)
	if w.IsOpen(saturday) {
		t.Fatalf("Saturday must be closed")
	}
}

func TestWindowWeekdaySetIsConfigurable(t *testing.T) {
	w, err := NewWindow(config.WindowConfig{
		Open:     "09:15",
		Close:    "15:40",
		Weekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday"},
	})
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	// 2026-03-27 is a Friday.
	friday := time.Date(2026, 3, 27, 10, 0, 0, 0, time.UTC)
	if w.IsOpen(friday) {
		t.Fatalf("Friday must be closed under the Mon-Thu set")
	}
}

func TestResetBoundaryDue(t *testing.T) {
	b, err := NewResetBoundary(config.ResetConfig{Enabled: true, Weekday: "Friday", At: "09:15"})
	if err != nil {
		t.Fatalf("NewResetBoundary: %v", err)
	}

	// 2026-03-27 is a Friday.
	friday := time.Date(2026, 3, 27, 9, 15, 30, 0, time.UTC)
	if !b.Due(friday) {
		t.Errorf("expected boundary due at Friday 09:15")
	}
	if b.Due(friday.Add(time.Minute)) {
		t.Errorf("boundary must not fire at 09:16")
	}
	if b.Due(friday.AddDate(0, 0, -1)) {
		t.Errorf("boundary must not fire on Thursday")
	}
}

func TestResetBoundaryDisabled(t *testing.T) {
	b, err := NewResetBoundary(config.ResetConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewResetBoundary: %v", err)
	}
	if b.Due(time.Date(2026, 3, 27, 9, 15, 0, 0, time.UTC)) {
		t.Fatalf("disabled boundary must never fire")
	}
}
