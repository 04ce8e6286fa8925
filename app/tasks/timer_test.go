package tasks

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresAfterInitialDelay(t *testing.T) {
	timer := NewTimer()
	defer timer.Cancel()

	var fired atomic.Int64
	timer.Schedule(10*time.Millisecond, 10*time.Millisecond, func() {
		fired.Add(1)
	})

	deadline := time.After(2 * time.Second)
	for fired.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected at least 3 firings, got %d", fired.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTimerCancelStopsFiring(t *testing.T) {
	timer := NewTimer()

	var fired atomic.Int64
	timer.Schedule(5*time.Millisecond, 5*time.Millisecond, func() {
		fired.Add(1)
	})

	deadline := time.After(2 * time.Second)
	for fired.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("Timer never fired")
		case <-time.After(time.Millisecond):
		}
	}

	timer.Cancel()
	count := fired.Load()
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != count {
		t.Errorf("Expected no firings after Cancel, got %d more", fired.Load()-count)
	}
}

func TestTimerScheduleReplacesPrevious(t *testing.T) {
	timer := NewTimer()
	defer timer.Cancel()

	var first, second atomic.Int64
	timer.Schedule(time.Hour, time.Hour, func() {
		first.Add(1)
	})
	timer.Schedule(5*time.Millisecond, time.Hour, func() {
		second.Add(1)
	})

	deadline := time.After(2 * time.Second)
	for second.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("Replacement schedule never fired")
		case <-time.After(time.Millisecond):
		}
	}

	if first.Load() != 0 {
		t.Errorf("Expected the replaced schedule to never fire, got %d firings", first.Load())
	}
}

func TestTimerCancelWithoutSchedule(t *testing.T) {
	timer := NewTimer()
	timer.Cancel()
	timer.Cancel()
}
