package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsVictory() bool
	Disabled() bool
	Close()

	// Tile operations
	Flip(index int) FlipResult
	ValidIndex(index int) bool
	Len() int

	// Configuration
	GetConfig() *GameConfig

	// History
	GetFlipHistory() []FlipHistoryEntry
	GetLastFlip() *FlipHistoryEntry

	// Observation
	OnChange(fn func(*GameState))
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface. It is not safe for concurrent
// use: drive it from a single Loop and give it that Loop as its Scheduler.
type GameEngine struct {
	config   *GameConfig
	board    *Board
	lock     *LockState
	resolver *Resolver
	sched    Scheduler
	rng      *rand.Rand

	message   string
	history   []FlipHistoryEntry
	listeners []func(*GameState)
	closed    bool
}

// Option customizes a GameEngine.
type Option func(*GameEngine)

// WithScheduler sets the scheduler used for mismatch conceals.
func WithScheduler(s Scheduler) Option {
	return func(e *GameEngine) {
		e.sched = s
	}
}

// WithRand sets the shuffle source, for reproducible boards.
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// NewEngine creates a new game engine with the provided configuration. A
// configuration error rejects the session before any board exists.
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		return nil, fmt.Errorf("%w: engine requires a scheduler", ErrInvalidConfig)
	}

	if err := e.newBoard(); err != nil {
		return nil, err
	}
	e.message = config.Messages.Welcome
	return e, nil
}

func (e *GameEngine) newBoard() error {
	var board *Board
	if len(e.config.Layout) > 0 {
		b, err := NewBoardFromLayout(e.config.Layout)
		if err != nil {
			return err
		}
		board = b
	} else {
		board = NewBoard(e.config.Kinds, e.rng)
	}

	if e.resolver != nil {
		e.resolver.close()
	}
	e.board = board
	e.lock = &LockState{}
	e.resolver = NewResolver(board, e.lock, e.sched, e.config.ConcealDelay())
	e.resolver.onConceal = e.concealed
	return nil
}

// Flip applies a click on index. A locked board or a solved tile makes it a
// silent no-op; otherwise the tile is toggled and the pair is resolved once.
// An out-of-range index is a caller bug and panics.
func (e *GameEngine) Flip(index int) FlipResult {
	if !e.board.InBounds(index) {
		invariant("flip", "index %d out of range [0,%d)", index, e.board.Len())
	}

	result := FlipResult{Index: index, Resolution: Resolution{Outcome: OutcomeNone}}

	switch {
	case e.closed || e.lock.Disabled():
		result.Status = FlipIgnoredLocked
		if e.config.Messages.Locked != "" {
			e.message = e.config.Messages.Locked
		}
	case e.board.tiles[index].Solved:
		result.Status = FlipIgnoredSolved
		if e.config.Messages.AlreadySolved != "" {
			e.message = e.config.Messages.AlreadySolved
		}
	default:
		e.board.setVisible(index, !e.board.tiles[index].Visible)
		result.Status = FlipApplied
		result.Resolution = e.resolver.Resolve()
		e.updateMessage(result.Resolution)
	}

	result.Victory = e.board.AllSolved()
	e.addFlipToHistory(result)
	if result.Applied() {
		e.notify()
	}
	return result
}

func (e *GameEngine) updateMessage(res Resolution) {
	switch res.Outcome {
	case OutcomeMatch:
		e.message = e.config.Messages.Match
		if e.board.AllSolved() {
			e.message = fmt.Sprintf(e.config.Messages.Victory, e.board.SolvedPairs())
		}
	case OutcomeMismatch:
		e.message = e.config.Messages.Mismatch
	}
}

// concealed runs on the scheduler after a mismatch pair was hidden and the lock released.
func (e *GameEngine) concealed(first, second int) {
	if e.closed {
		return
	}
	e.notify()
}

// Disabled reports whether the board lock is engaged.
func (e *GameEngine) Disabled() bool {
	return e.lock.Disabled()
}

// ConcealPending reports whether a mismatch conceal is scheduled.
func (e *GameEngine) ConcealPending() bool {
	return e.resolver.ConcealPending()
}

// ValidIndex reports whether index addresses a tile on the board.
func (e *GameEngine) ValidIndex(index int) bool {
	return e.board.InBounds(index)
}

// Len returns the number of tiles.
func (e *GameEngine) Len() int {
	return e.board.Len()
}

// Tiles returns a copy of the board including kinds of face-down tiles.
func (e *GameEngine) Tiles() []Tile {
	return e.board.Tiles()
}

// IsVictory returns whether every tile is solved
func (e *GameEngine) IsVictory() bool {
	return e.board.AllSolved()
}

// GetConfig returns the current deck
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetState returns a snapshot of the board and lock
func (e *GameEngine) GetState() *GameState {
	tiles := make([]TileState, e.board.Len())
	for i, t := range e.board.tiles {
		ts := TileState{Index: i, Visible: t.Visible, Solved: t.Solved}
		if t.Visible || t.Solved {
			ts.Kind = t.Kind
		}
		tiles[i] = ts
	}

	pending := e.board.pending()
	if pending == nil {
		pending = []int{}
	}

	return &GameState{
		Tiles:        tiles,
		Disabled:     e.lock.Disabled(),
		PendingTiles: pending,
		SolvedPairs:  e.board.SolvedPairs(),
		TotalPairs:   e.board.Len() / 2,
		Victory:      e.board.AllSolved(),
		Message:      e.message,
		ConfigName:   e.config.Name,
		TotalFlips:   len(e.history),
	}
}

// Reset deals a fresh board, dropping any pending conceal. History is kept.
func (e *GameEngine) Reset() *GameState {
	if err := e.newBoard(); err != nil {
		// the config was validated in NewEngine, a failure here is a bug
		invariant("reset", "%v", err)
	}
	e.message = e.config.Messages.Welcome
	state := e.GetState()
	e.notify()
	return state
}

// Close cancels any pending conceal. Flips after Close are ignored.
func (e *GameEngine) Close() {
	e.closed = true
	e.resolver.close()
	e.listeners = nil
}

// OnChange registers an observer called with a fresh snapshot after every
// applied flip, conceal and reset.
func (e *GameEngine) OnChange(fn func(*GameState)) {
	e.listeners = append(e.listeners, fn)
}

func (e *GameEngine) notify() {
	if len(e.listeners) == 0 {
		return
	}
	state := e.GetState()
	for _, fn := range e.listeners {
		fn(state)
	}
}

// GetFlipHistory returns every flip attempt since the engine was created
func (e *GameEngine) GetFlipHistory() []FlipHistoryEntry {
	out := make([]FlipHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastFlip returns the last flip attempt, or nil if none
func (e *GameEngine) GetLastFlip() *FlipHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	entry := e.history[len(e.history)-1]
	return &entry
}

func (e *GameEngine) addFlipToHistory(result FlipResult) {
	entry := FlipHistoryEntry{
		FlipNumber: len(e.history) + 1,
		Index:      result.Index,
		Status:     result.Status,
		Outcome:    result.Resolution.Outcome,
		Timestamp:  time.Now().Unix(),
	}
	if t := e.board.tiles[result.Index]; t.Visible || t.Solved {
		entry.Kind = t.Kind
	}
	e.history = append(e.history, entry)
}
