package schedule

import (
	"context"
	"time"
)

// Clock abstracts wall time so the window gate and reset boundary can be
// tested without real waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// RealClock is the production clock. Sleep returns early when the context is
// cancelled.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
