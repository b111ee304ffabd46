package schedule

import (
	"fmt"
	"time"

	"derivflow/config"
)

// ResetBoundary triggers the weekly partition reset: a fixed weekday and
// minute, matched exactly. Cycles run roughly once per minute, so matching
// on the minute is the intended granularity; the reset itself is idempotent,
// so a second firing inside the same minute is harmless.
type ResetBoundary struct {
	enabled bool
	weekday time.Weekday
	at      config.Clock
}

// NewResetBoundary builds the boundary check from configuration. A disabled
// boundary never fires.
func NewResetBoundary(cfg config.ResetConfig) (*ResetBoundary, error) {
	if !cfg.Enabled {
		return &ResetBoundary{}, nil
	}
	day, ok := config.ParseWeekday(cfg.Weekday)
	if !ok {
		return nil, fmt.Errorf("reset weekday: unknown weekday %q", cfg.Weekday)
	}
	at, err := config.ParseClock(cfg.At)
	if err != nil {
		return nil, fmt.Errorf("reset at: %w", err)
	}
	return &ResetBoundary{enabled: true, weekday: day, at: at}, nil
}

// Due reports whether t falls exactly on the boundary minute.
func (b *ResetBoundary) Due(t time.Time) bool {
	if !b.enabled {
		return false
	}
	return t.Weekday() == b.weekday && t.Hour() == b.at.Hour && t.Minute() == b.at.Minute
}
