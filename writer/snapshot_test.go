package writer

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	appconfig "derivflow/config"
	"derivflow/models"
)

func newTestSnapshotWriter(t *testing.T) *SnapshotWriter {
	t.Helper()
	w, err := NewSnapshotWriter(appconfig.SnapshotConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}
	return w
}

func readPartition(t *testing.T, w *SnapshotWriter, key string, day time.Weekday) [][]string {
	t.Helper()
	f, err := os.Open(w.PartitionPath(key, day))
	if err != nil {
		t.Fatalf("open partition: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}
	return records
}

func TestSnapshotLastWriteWins(t *testing.T) {
	w := newTestSnapshotWriter(t)

	first := []models.Row{
		{Ticker: "BANKNIFTY", StrikePrice: 48000, OptionType: "CE"},
		{Ticker: "BANKNIFTY", StrikePrice: 48000, OptionType: "PE"},
	}
	second := []models.Row{
		{Ticker: "BANKNIFTY", StrikePrice: 49000, OptionType: "CE"},
	}

	if err := w.Write("BANKNIFTY", time.Monday, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write("BANKNIFTY", time.Monday, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	records := readPartition(t, w, "BANKNIFTY", time.Monday)
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row after overwrite, got %d records", len(records))
	}
	if !strings.Contains(strings.Join(records[1], ","), "49000") {
		t.Errorf("second write's row missing: %v", records[1])
	}
}

func TestSnapshotHeaderMatchesSchema(t *testing.T) {
	w := newTestSnapshotWriter(t)
	if err := w.Write("NIFTY", time.Tuesday, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records := readPartition(t, w, "NIFTY", time.Tuesday)
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
	header := models.Header()
	if len(records[0]) != len(header) {
		t.Fatalf("header width = %d, want %d", len(records[0]), len(header))
	}
	for i := range header {
		if records[0][i] != header[i] {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], header[i])
		}
	}
}

func TestSnapshotPartitionsAreIsolated(t *testing.T) {
	w := newTestSnapshotWriter(t)

	if err := w.Write("BANKNIFTY", time.Monday, []models.Row{{StrikePrice: 1}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write("BANKNIFTY", time.Tuesday, []models.Row{{StrikePrice: 2}, {StrikePrice: 3}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write("NIFTY", time.Monday, []models.Row{{StrikePrice: 4}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := len(readPartition(t, w, "BANKNIFTY", time.Monday)); got != 2 {
		t.Errorf("BANKNIFTY Monday records = %d, want 2", got)
	}
	if got := len(readPartition(t, w, "BANKNIFTY", time.Tuesday)); got != 3 {
		t.Errorf("BANKNIFTY Tuesday records = %d, want 3", got)
	}
	if got := len(readPartition(t, w, "NIFTY", time.Monday)); got != 2 {
		t.Errorf("NIFTY Monday records = %d, want 2", got)
	}
}

func TestWeeklyResetBlanksOtherDays(t *testing.T) {
	w := newTestSnapshotWriter(t)

	sources := []appconfig.SourceConfig{{Key: "BANKNIFTY"}, {Key: "NIFTY"}}
	window := appconfig.WindowConfig{Weekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}}

	rows := []models.Row{{Ticker: "BANKNIFTY", StrikePrice: 48000}}
	for _, src := range sources {
		for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
			if err := w.Write(src.Key, day, rows); err != nil {
				t.Fatalf("seed write: %v", err)
			}
		}
	}

	reset := NewWeeklyReset(w, sources, window)

	// 2026-03-27 is a Friday.
	friday := time.Date(2026, 3, 27, 9, 15, 0, 0, time.UTC)
	reset.Run(friday)

	for _, src := range sources {
		for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday} {
			if got := len(readPartition(t, w, src.Key, day)); got != 1 {
				t.Errorf("%s %s: %d records after reset, want header only", src.Key, day, got)
			}
		}
		// Friday is the current day and must survive.
		if got := len(readPartition(t, w, src.Key, time.Friday)); got != 2 {
			t.Errorf("%s Friday: %d records, want 2", src.Key, got)
		}
	}

	// Firing again inside the same minute must not change anything.
	reset.Run(friday.Add(30 * time.Second))
	if got := len(readPartition(t, w, "BANKNIFTY", time.Monday)); got != 1 {
		t.Errorf("second reset changed an already-blank partition: %d records", got)
	}
}
