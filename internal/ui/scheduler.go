package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"deskpet/internal/pet"
)

// TimeNow is overridden in tests
var TimeNow = time.Now

// timerMsg is delivered by tea.Tick when a machine timer comes due
type timerMsg struct {
	id uint64
}

type pendingTimer struct {
	when time.Time
	f    func()
}

// teaScheduler turns machine timers into tea.Tick commands so every callback
// runs inside Update, on the program's event loop.
type teaScheduler struct {
	next    uint64
	pending map[uint64]pendingTimer
	cmds    []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{pending: make(map[uint64]pendingTimer)}
}

func (s *teaScheduler) Now() time.Time {
	return TimeNow()
}

func (s *teaScheduler) AfterFunc(d time.Duration, f func()) pet.Timer {
	s.next++
	id := s.next
	s.pending[id] = pendingTimer{when: TimeNow().Add(d), f: f}
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return &teaTimer{s: s, id: id}
}

// fire runs the callback for id. Ticks for stopped timers still arrive and
// are dropped here.
func (s *teaScheduler) fire(id uint64) {
	p, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	p.f()
}

// drain hands the ticks armed since the last call to bubbletea
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.cmds) == 0 {
		return nil
	}
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}

type teaTimer struct {
	s  *teaScheduler
	id uint64
}

func (t *teaTimer) Stop() bool {
	if _, ok := t.s.pending[t.id]; !ok {
		return false
	}
	delete(t.s.pending, t.id)
	return true
}
