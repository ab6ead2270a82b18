package pet

import (
	"sort"
	"time"
)

// Timer is a cancellable scheduled callback. Stop is safe to call any number
// of times and reports whether it prevented the callback from running.
type Timer interface {
	Stop() bool
}

// Scheduler supplies the clock and one-shot timers for a Machine.
// Callbacks must run on the same goroutine that drives the Machine.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// ManualScheduler is a virtual clock. Time only moves in Advance, and due
// callbacks run synchronously in deadline order.
type ManualScheduler struct {
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s    *ManualScheduler
	when time.Time
	seq  uint64
	f    func()
	done bool
}

// NewManualScheduler starts the virtual clock at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now implements Scheduler
func (s *ManualScheduler) Now() time.Time {
	return s.now
}

// AfterFunc implements Scheduler
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, when: s.now.Add(d), seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Stop implements Timer
func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of timers that have neither fired nor been stopped
func (s *ManualScheduler) Pending() int {
	return len(s.pending)
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers armed by callbacks during the advance.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.remove(next)
		next.done = true
		s.now = next.when
		next.f()
	}
	s.now = target
}

// AdvanceTo moves the clock to t if t is in the future
func (s *ManualScheduler) AdvanceTo(t time.Time) {
	if t.After(s.now) {
		s.Advance(t.Sub(s.now))
	}
}

func (s *ManualScheduler) nextDue(target time.Time) *manualTimer {
	if len(s.pending) == 0 {
		return nil
	}
	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].when.Equal(s.pending[j].when) {
			return s.pending[i].seq < s.pending[j].seq
		}
		return s.pending[i].when.Before(s.pending[j].when)
	})
	if s.pending[0].when.After(target) {
		return nil
	}
	return s.pending[0]
}

// TimerKind names a slot in the machine's timer set.
type TimerKind int

const (
	TimerIdle TimerKind = iota
	TimerSleep
	TimerLongPress
	TimerSleepTick
	TimerClick
	TimerDragRelease
	TimerAuto
	timerKindCount
)

func (k TimerKind) String() string {
	switch k {
	case TimerIdle:
		return "idle"
	case TimerSleep:
		return "sleep"
	case TimerLongPress:
		return "long_press"
	case TimerSleepTick:
		return "sleep_tick"
	case TimerClick:
		return "click"
	case TimerDragRelease:
		return "drag_release"
	case TimerAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// timerSet holds at most one live timer per kind. Each armed timer carries a
// generation so a callback that slips past Stop can recognise itself as stale.
type timerSet struct {
	sched Scheduler
	gen   uint64
	slots [timerKindCount]timerSlot
}

type timerSlot struct {
	gen   uint64
	timer Timer
}

// arm cancels any timer of the same kind and schedules f. f only runs while
// the slot still belongs to this arming.
func (ts *timerSet) arm(kind TimerKind, d time.Duration, f func()) {
	ts.cancel(kind)
	ts.gen++
	gen := ts.gen
	t := ts.sched.AfterFunc(d, func() {
		if ts.slots[kind].gen != gen {
			return
		}
		ts.slots[kind] = timerSlot{}
		f()
	})
	ts.slots[kind] = timerSlot{gen: gen, timer: t}
}

func (ts *timerSet) cancel(kind TimerKind) {
	slot := ts.slots[kind]
	if slot.timer != nil {
		slot.timer.Stop()
	}
	ts.slots[kind] = timerSlot{}
}

func (ts *timerSet) cancelAll() {
	for k := TimerKind(0); k < timerKindCount; k++ {
		ts.cancel(k)
	}
}

func (ts *timerSet) active(kind TimerKind) bool {
	return ts.slots[kind].gen != 0
}
