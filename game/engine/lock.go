package engine

// LockState gates input while a mismatch conceal is pending. Only the
// resolver and the conceal it schedules write to it.
type LockState struct {
	disabled bool
}

// Disabled reports whether flips are currently ignored.
func (l *LockState) Disabled() bool {
	return l.disabled
}

func (l *LockState) engage() {
	l.disabled = true
}

func (l *LockState) release() {
	l.disabled = false
}
