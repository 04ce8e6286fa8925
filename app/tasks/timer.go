package tasks

import (
	"context"
	"sync"
	"time"
)

// Timer fires a callback after an initial delay and then at a fixed period.
// Schedule and Cancel are mutually exclusive with each other, so two
// overlapping Schedule calls never leave two live tickers. The callback runs
// on the timer's own goroutine; callers are expected to hand real work off
// to a pool so rescheduling never blocks on an in-progress cycle.
type Timer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTimer() *Timer {
	return &Timer{}
}

// Schedule replaces any active schedule with a new one firing first after
// initialDelay and every period thereafter.
func (t *Timer) Schedule(initialDelay, period time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		initial := time.NewTimer(initialDelay)
		defer initial.Stop()

		select {
		case <-ctx.Done():
			return
		case <-initial.C:
			fn()
		}

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Cancel stops the active schedule, if any. No further firings occur after
// Cancel returns.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.wg.Wait()
}
