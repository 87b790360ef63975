package engine

import (
	"sort"
	"time"
)

// Scheduler runs fn once, no earlier than d from now, on the same logical
// thread that drives the engine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a handle to a scheduled action.
type Timer interface {
	// Stop prevents the action from running. It returns false if the action
	// already ran or was already stopped.
	Stop() bool
}

// ManualScheduler is a virtual clock. Actions only run from Advance, on the
// caller's goroutine, which makes timer-driven behavior deterministic.
// It is not safe for concurrent use.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManualScheduler returns a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc registers fn to run once the virtual clock reaches now+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.seq++
	t := &manualTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward by d and runs every due action in deadline
// order. Actions scheduled while advancing run too if they fall due. It
// returns the number of actions run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	target := s.now + d
	fired := 0
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.fn()
		fired++
	}
	s.now = target
	s.compact()
	return fired
}

// Pending returns the number of actions that have neither run nor been stopped.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}

func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	live := make([]*manualTimer, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.stopped && !t.fired && t.at <= target {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at != live[j].at {
			return live[i].at < live[j].at
		}
		return live[i].seq < live[j].seq
	})
	return live[0]
}

func (s *ManualScheduler) compact() {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
}
