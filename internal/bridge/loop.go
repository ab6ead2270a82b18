package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"deskpet/internal/pet"
)

// errStopped ends a session after the pet asked to quit
var errStopped = errors.New("loop stopped")

// Loop serialises everything a session does onto one goroutine. It is the
// Scheduler for the session's machine: timer callbacks are posted back onto
// the loop instead of running on the runtime timer goroutine.
type Loop struct {
	events chan func()
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewLoop creates a loop; call Run to start processing
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run processes posted functions until ctx ends or Stop is called
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return errStopped
		case f := <-l.events:
			f()
		}
	}
}

// Post queues f to run on the loop. It reports false once the loop has ended.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- f:
		return true
	case <-l.done:
		return false
	}
}

// Stop makes Run return after the current function
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Now implements pet.Scheduler
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc implements pet.Scheduler. f runs on the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) pet.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// loopTimer flags are only touched on the loop goroutine
type loopTimer struct {
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
