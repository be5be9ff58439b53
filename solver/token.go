package solver

import (
	"context"
	"sync/atomic"
	"time"
)

// A stopToken is flipped once, from false to true, when the search has to
// stop. The search polls it at node entry and between children.
type stopToken struct {
	stopped atomic.Bool
}

func (t *stopToken) Stop() {
	t.stopped.Store(true)
}

func (t *stopToken) Stopped() bool {
	return t.stopped.Load()
}

// arm resets the token and arranges for it to flip after d, or when ctx is
// done. A non-positive d leaves no time at all, so the token starts out
// stopped. The returned func disarms both.
func (t *stopToken) arm(ctx context.Context, d time.Duration) func() {
	t.stopped.Store(false)
	var timer *time.Timer
	if d > 0 {
		timer = time.AfterFunc(d, t.Stop)
	} else {
		t.Stop()
	}
	stopCtx := context.AfterFunc(ctx, t.Stop)
	return func() {
		if timer != nil {
			timer.Stop()
		}
		stopCtx()
	}
}
