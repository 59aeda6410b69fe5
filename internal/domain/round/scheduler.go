package round

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler suspends the round loop between cycles. It is the only place
// the core waits.
type Scheduler interface {
	Yield(ctx context.Context, d time.Duration) error
}

// SleepScheduler sleeps on a clock, waking early on cancellation.
type SleepScheduler struct {
	Clock clockwork.Clock
}

// Yield waits d or until ctx is done.
func (s SleepScheduler) Yield(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := s.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}

// StepScheduler advances a fake clock instead of sleeping, so a round runs
// synchronously against synthetic timestamps.
type StepScheduler struct {
	Clock *clockwork.FakeClock
}

// Yield moves the fake clock forward by d.
func (s StepScheduler) Yield(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Clock.Advance(d)
	return nil
}
