package engine

import (
	"errors"
	"fmt"
	"time"
)

// TileKind is the opaque identity of a tile's image. The mapping from a kind
// to something renderable belongs to the presentation layer.
type TileKind string

const (
	// Validation constants
	MaxKinds            = 32
	DefaultConcealDelay = time.Second
	MinConcealDelay     = 100 * time.Millisecond
	MaxConcealDelay     = 10 * time.Second
	MaxBulkFlips        = 64
	WebSocketBufferSize = 256
)

var (
	ErrInvalidConfig      = errors.New("invalid game configuration")
	ErrInvalidLayout      = errors.New("invalid board layout")
	ErrInvariantViolation = errors.New("engine invariant violated")
)

// InvariantError reports a programmer error the engine refuses to paper over,
// such as an out-of-range flip or more than two pending tiles.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariantViolation, e.Op, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}

// Tile is a single board cell. Two tiles are equal when their kinds are.
type Tile struct {
	Kind    TileKind `json:"kind"`
	Visible bool     `json:"visible"`
	Solved  bool     `json:"solved"`
}

// Pending reports whether the tile is face-up and not yet matched.
func (t Tile) Pending() bool {
	return t.Visible && !t.Solved
}

// Matches compares tiles by kind alone.
func (t Tile) Matches(other Tile) bool {
	return t.Kind == other.Kind
}

// GameConfig represents a deck loaded from JSON
type GameConfig struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Kinds          []TileKind `json:"kinds"`
	Layout         []TileKind `json:"layout,omitempty"` // fixed tile order, skips the shuffle
	ConcealDelayMs int        `json:"conceal_delay_ms,omitempty"`
	Messages       struct {
		Welcome       string `json:"welcome"`
		Match         string `json:"match"`
		Mismatch      string `json:"mismatch"`
		Locked        string `json:"locked"`
		AlreadySolved string `json:"already_solved"`
		Victory       string `json:"victory"`
	} `json:"messages"`
}

// ConcealDelay returns the configured mismatch delay, or the default.
func (c *GameConfig) ConcealDelay() time.Duration {
	if c == nil || c.ConcealDelayMs == 0 {
		return DefaultConcealDelay
	}
	return time.Duration(c.ConcealDelayMs) * time.Millisecond
}

// FlipStatus says what a flip request did.
type FlipStatus string

const (
	FlipApplied       FlipStatus = "applied"
	FlipIgnoredLocked FlipStatus = "ignored_locked"
	FlipIgnoredSolved FlipStatus = "ignored_solved"
)

// Outcome is the resolver decision for one flip.
type Outcome string

const (
	OutcomeNone     Outcome = "none"
	OutcomeMatch    Outcome = "match"
	OutcomeMismatch Outcome = "mismatch"
)

// Resolution is the result of a single resolver pass. First and Second are
// only meaningful for a match or mismatch.
type Resolution struct {
	Outcome Outcome `json:"outcome"`
	First   int     `json:"first"`
	Second  int     `json:"second"`
}

// FlipResult describes a single Flip call.
type FlipResult struct {
	Index      int        `json:"index"`
	Status     FlipStatus `json:"status"`
	Resolution Resolution `json:"resolution"`
	Victory    bool       `json:"victory"`
}

// Applied reports whether the tile was toggled.
func (r FlipResult) Applied() bool {
	return r.Status == FlipApplied
}

// TileState is the client-facing view of a tile. Kind is only filled in while
// the tile is face-up or solved.
type TileState struct {
	Index   int      `json:"index"`
	Kind    TileKind `json:"kind,omitempty"`
	Visible bool     `json:"visible"`
	Solved  bool     `json:"solved"`
}

// GameState is a point-in-time snapshot of a session's board and lock.
type GameState struct {
	Tiles        []TileState `json:"tiles"`
	Disabled     bool        `json:"disabled"`
	PendingTiles []int       `json:"pending_tiles"`
	SolvedPairs  int         `json:"solved_pairs"`
	TotalPairs   int         `json:"total_pairs"`
	Victory      bool        `json:"victory"`
	Message      string      `json:"message"`
	ConfigName   string      `json:"config_name"`
	TotalFlips   int         `json:"total_flips"`
}

// FlipHistoryEntry represents a single flip attempt in the game history
type FlipHistoryEntry struct {
	FlipNumber int        `json:"flip_number"`
	Index      int        `json:"index"`
	Kind       TileKind   `json:"kind,omitempty"`
	Status     FlipStatus `json:"status"`
	Outcome    Outcome    `json:"outcome"`
	Timestamp  int64      `json:"timestamp"`
}
