package schedule

import (
	"fmt"
	"time"

	"derivflow/config"
)

// Window is the trading-session gate: a pure predicate over the current
// time. Both boundaries are inclusive and the eligible weekday set is
// configurable; deployments disagree on whether Friday trades.
type Window struct {
	open     config.Clock
	close    config.Clock
	weekdays map[time.Weekday]bool
}

// NewWindow builds the gate from configuration.
func NewWindow(cfg config.WindowConfig) (*Window, error) {
	open, err := config.ParseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("window open: %w", err)
	}
	cl, err := config.ParseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("window close: %w", err)
	}

	days := make(map[time.Weekday]bool, len(cfg.Weekdays))
	for _, name := range cfg.Weekdays {
		d, ok := config.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("window weekdays: unknown weekday %q", name)
		}
		days[d] = true
	}

	return &Window{open: open, close: cl, weekdays: days}, nil
}

// IsOpen reports whether t falls inside the session: an eligible weekday
// with a time of day in [open, close]. A timestamp exactly on either
// boundary is inside.
func (w *Window) IsOpen(t time.Time) bool {
	if !w.weekdays[t.Weekday()] {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	openMin := w.open.Hour*60 + w.open.Minute
	closeMin := w.close.Hour*60 + w.close.Minute
	return minute >= openMin && minute <= closeMin
}
