package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrIndexOutOfRange = errors.New("tile index out of range")
	ErrNoFlips         = errors.New("no flips provided")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error)
	BulkFlip(ctx context.Context, sessionID string, indices []int, reset bool) (*BulkFlipResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles deck loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. Engine is owned by Loop: touch
// it only from inside Do.
type Session struct {
	ID        string
	ConfigID  string
	Engine    *engine.GameEngine
	Loop      *engine.Loop
	Config    *engine.GameConfig
	CreatedAt time.Time

	mu           sync.Mutex
	lastAccessed time.Time
	closeOnce    sync.Once
}

// NewSession wires an engine to the loop that owns it.
func NewSession(id, configID string, config *engine.GameConfig, e *engine.GameEngine, loop *engine.Loop) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		ConfigID:     configID,
		Engine:       e,
		Loop:         loop,
		Config:       config,
		CreatedAt:    now,
		lastAccessed: now,
	}
}

// Touch records an access at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.lastAccessed = t
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the last recorded access.
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Do runs fn against the session's engine on its loop and waits for it.
// After an engine invariant violation every call fails with engine.ErrLoopHalted.
func (s *Session) Do(ctx context.Context, fn func(e *engine.GameEngine) error) error {
	return s.Loop.Do(ctx, func() error {
		return fn(s.Engine)
	})
}

// Close drops any pending conceal and stops the loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Do(ctx, func(e *engine.GameEngine) error {
			e.Close()
			return nil
		})
		s.Loop.Stop()
	})
}
