package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrLoopStopped = errors.New("event loop stopped")
	ErrLoopHalted  = errors.New("event loop halted")
)

// Loop is the single logical thread of a session. Every engine call and every
// timer callback is posted to it and executed one at a time, to completion.
type Loop struct {
	name   string
	events chan func()
	done   chan struct{}

	stopOnce sync.Once
	mu       sync.Mutex
	err      error
}

// NewLoop creates a loop with the given queue depth. Call Run to start it.
func NewLoop(name string, buffer int) *Loop {
	return &Loop{
		name:   name,
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Run processes events until Stop is called or an event panics.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.events:
			if !l.exec(fn) {
				return
			}
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.halt(r)
			ok = false
		}
	}()
	fn()
	return true
}

func (l *Loop) halt(r any) {
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	l.mu.Lock()
	l.err = fmt.Errorf("%w: %w", ErrLoopHalted, cause)
	l.mu.Unlock()

	log.Error().Str("loop", l.name).Err(cause).Msg("event loop halted")
	l.Stop()
}

// Err returns the halt cause, ErrLoopStopped after a clean stop, or nil while running.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
		return nil
	}
}

// Post enqueues fn. It returns false if the loop has stopped; the action is dropped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return l.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// fn may have completed right before the stop
		select {
		case err := <-result:
			return err
		default:
			return l.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop terminates the loop. Queued and future actions are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// AfterFunc implements Scheduler: after d the action is posted back onto the
// loop, so it never runs concurrently with other engine work.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		l.Post(fn)
	})
}
