package engine

import "time"

// Resolver decides, after each applied flip, whether the face-up pair matches.
// A mismatch locks the board and schedules a single conceal.
type Resolver struct {
	board *Board
	lock  *LockState
	sched Scheduler
	delay time.Duration

	// conceal is the outstanding mismatch timer, nil when none is pending.
	conceal Timer
	// onConceal runs after a conceal has hidden the pair and unlocked.
	onConceal func(first, second int)
	closed    bool
}

// NewResolver wires a resolver to a board, its lock and a scheduler.
func NewResolver(board *Board, lock *LockState, sched Scheduler, delay time.Duration) *Resolver {
	return &Resolver{
		board: board,
		lock:  lock,
		sched: sched,
		delay: delay,
	}
}

// Resolve runs one pass over the board. With fewer than two pending tiles it
// does nothing. With two it marks a match as solved, or locks and schedules a
// conceal on mismatch. More than two pending tiles means the lock gate was
// bypassed and it panics.
func (r *Resolver) Resolve() Resolution {
	pending := r.board.pending()

	switch len(pending) {
	case 0, 1:
		return Resolution{Outcome: OutcomeNone}
	case 2:
	default:
		invariant("resolve", "%d tiles pending evaluation %v, want at most 2", len(pending), pending)
	}

	first, second := pending[0], pending[1]
	res := Resolution{First: first, Second: second}

	if r.board.tiles[first].Matches(r.board.tiles[second]) {
		r.board.setSolved(first)
		r.board.setSolved(second)
		res.Outcome = OutcomeMatch
		return res
	}

	if r.conceal != nil {
		invariant("resolve", "mismatch (%d,%d) while a conceal is already pending", first, second)
	}

	r.lock.engage()
	board, lock := r.board, r.lock
	r.conceal = r.sched.AfterFunc(r.delay, func() {
		if r.closed {
			return
		}
		r.conceal = nil
		board.setVisible(first, false)
		board.setVisible(second, false)
		lock.release()
		if r.onConceal != nil {
			r.onConceal(first, second)
		}
	})
	res.Outcome = OutcomeMismatch
	return res
}

// ConcealPending reports whether a mismatch is waiting to be hidden.
func (r *Resolver) ConcealPending() bool {
	return r.conceal != nil
}

// close drops a pending conceal without touching the board. A conceal that
// was already queued when close ran becomes a no-op.
func (r *Resolver) close() {
	r.closed = true
	if r.conceal != nil {
		r.conceal.Stop()
		r.conceal = nil
	}
}
