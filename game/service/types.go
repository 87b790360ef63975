package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// FlipResult contains the result of a flip operation
type FlipResult struct {
	Success    bool              `json:"success"` // false when the flip was ignored
	Index      int               `json:"index"`
	Status     engine.FlipStatus `json:"status"`
	Resolution engine.Resolution `json:"resolution"`
	GameState  *engine.GameState `json:"game_state"`
	Message    string            `json:"message"`
	Events     []GameEvent       `json:"events,omitempty"`
}

// Stop reason codes for BulkFlipResult
const (
	StopLocked  = "locked"
	StopVictory = "victory"
)

// BulkFlipResult contains the result of a sequence of flips
type BulkFlipResult struct {
	FlipsExecuted    int                 `json:"flips_executed"`
	RequestedFlips   int                 `json:"requested_flips"`
	Success          bool                `json:"success"`
	GameState        *engine.GameState   `json:"game_state"`
	Flips            []engine.FlipResult `json:"flips"`
	Events           []GameEvent         `json:"events"`
	StoppedReason    string              `json:"stopped_reason,omitempty"`
	StopReasonCode   string              `json:"stop_reason_code,omitempty"` // locked|victory
	StoppedOnFlip    int                 `json:"stopped_on_flip,omitempty"`  // 1-based index of the flip that caused stop
	Truncated        bool                `json:"truncated,omitempty"`
	Limit            int                 `json:"limit,omitempty"`
	SolvedPairsDelta int                 `json:"solved_pairs_delta"`
	Message          string              `json:"message,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "flip", "match", "mismatch", "ignored", "victory", "reset"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Index     *int      `json:"index,omitempty"`
	Pair      []int     `json:"pair,omitempty"`
}

// HistoryOptions configures flip history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated flip history
type HistoryResponse struct {
	Flips       []engine.FlipHistoryEntry `json:"flips"`
	TotalFlips  int                       `json:"total_flips"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a deck
type ConfigInfo struct {
	Filename       string `json:"filename,omitempty"` // empty for the built-in deck
	ConfigID       string `json:"config_id"`          // The identifier to use for session creation
	Name           string `json:"name"`               // Display name
	Description    string `json:"description"`
	Kinds          int    `json:"kinds"`
	TotalTiles     int    `json:"total_tiles"`
	FixedLayout    bool   `json:"fixed_layout"`
	ConcealDelayMs int64  `json:"conceal_delay_ms"`
}
