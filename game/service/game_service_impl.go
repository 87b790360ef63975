package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// gameServiceImpl implements the GameService interface. Each session's
// engine is serialized by its own loop, so the service holds no lock.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	return configName
}

// session looks up a session and records the access.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.sessionInfo(ctx, sess)
}

// configError adds the available deck ids to a not-found error.
func (s *gameServiceImpl) configError(configName string, err error) error {
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr != nil || len(availableConfigs) == 0 {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	var configIDs []string
	for _, cfg := range availableConfigs {
		configIDs = append(configIDs, cfg.ConfigID)
	}
	return fmt.Errorf("%w (available configs: %v)", err, configIDs)
}

func (s *gameServiceImpl) sessionInfo(ctx context.Context, sess *Session) (*SessionInfo, error) {
	var state *engine.GameState
	err := sess.Do(ctx, func(e *engine.GameEngine) error {
		state = e.GetState()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID, // Return the config_id, not the display name
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      state,
		GameConfig:     sess.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(ctx, sess)
}

// ListSessions returns all active sessions. Sessions whose loop has halted
// are listed without a game state.
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		info, err := s.sessionInfo(ctx, sess)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			info = &SessionInfo{
				ID:             sess.ID,
				ConfigName:     sess.ConfigID,
				CreatedAt:      sess.CreatedAt,
				LastAccessedAt: sess.LastAccessedAt(),
				GameConfig:     sess.Config,
			}
		}
		result = append(result, info)
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// Flip clicks one tile
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var result *FlipResult
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		if !e.ValidIndex(index) {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, e.Len())
		}

		r := e.Flip(index)
		state := e.GetState()
		result = &FlipResult{
			Success:    r.Applied(),
			Index:      r.Index,
			Status:     r.Status,
			Resolution: r.Resolution,
			GameState:  state,
			Message:    state.Message,
			Events:     flipEvents(r, state),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkFlip clicks tiles in order, stopping once the board locks or the game
// is won. Indices are validated before any flip runs.
func (s *gameServiceImpl) BulkFlip(ctx context.Context, sessionID string, indices []int, reset bool) (*BulkFlipResult, error) {
	if len(indices) == 0 && !reset {
		return nil, ErrNoFlips
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkFlipResult{
		RequestedFlips: len(indices),
		Flips:          make([]engine.FlipResult, 0, len(indices)),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Limit flips to prevent abuse
	if len(indices) > engine.MaxBulkFlips {
		result.Truncated = true
		result.Limit = engine.MaxBulkFlips
		indices = indices[:engine.MaxBulkFlips]
	}

	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		for _, index := range indices {
			if !e.ValidIndex(index) {
				return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, e.Len())
			}
		}

		if reset {
			e.Reset()
			result.Events = append(result.Events, newEvent("reset", "Game reset with a fresh board", nil))
		}

		startPairs := e.GetState().SolvedPairs

		for i, index := range indices {
			if e.Disabled() {
				result.stop(StopLocked, "board locked after a mismatch", i+1)
				break
			}
			if e.IsVictory() {
				result.stop(StopVictory, "game already won", i+1)
				break
			}

			r := e.Flip(index)
			result.FlipsExecuted++
			result.Flips = append(result.Flips, r)
			result.Events = append(result.Events, flipEvents(r, e.GetState())...)
			if !r.Applied() {
				result.Success = false
			}

			if r.Victory && i < len(indices)-1 {
				result.stop(StopVictory, "all pairs found", i+1)
				break
			}
			if r.Resolution.Outcome == engine.OutcomeMismatch && i < len(indices)-1 {
				result.stop(StopLocked, "mismatch locked the board", i+1)
				break
			}
		}

		state := e.GetState()
		result.GameState = state
		result.Message = state.Message
		result.SolvedPairsDelta = state.SolvedPairs - startPairs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BulkFlipResult) stop(code, reason string, onFlip int) {
	r.StopReasonCode = code
	r.StoppedReason = reason
	r.StoppedOnFlip = onFlip
}

// Reset deals a fresh board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		state = e.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetGameState returns the current board snapshot
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		state = e.GetState()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetFlipHistory returns paginated flip history
func (s *gameServiceImpl) GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.FlipHistoryEntry
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		history = e.GetFlipHistory()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paginate(history, opts), nil
}

func paginate(history []engine.FlipHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	flips := []engine.FlipHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				flips = append(flips, history[i])
			}
		} else {
			flips = append(flips, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Flips:       flips,
		TotalFlips:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns all available decks
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific deck
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a deck to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// flipEvents describes one flip for clients replaying a game.
func flipEvents(r engine.FlipResult, state *engine.GameState) []GameEvent {
	index := r.Index

	if !r.Applied() {
		return []GameEvent{newEvent("ignored", state.Message, &index)}
	}

	events := []GameEvent{newEvent("flip", fmt.Sprintf("Flipped tile %d", index), &index)}

	switch r.Resolution.Outcome {
	case engine.OutcomeMatch:
		ev := newEvent("match", state.Message, nil)
		ev.Pair = []int{r.Resolution.First, r.Resolution.Second}
		events = append(events, ev)
	case engine.OutcomeMismatch:
		ev := newEvent("mismatch", state.Message, nil)
		ev.Pair = []int{r.Resolution.First, r.Resolution.Second}
		events = append(events, ev)
	}

	if r.Victory && r.Resolution.Outcome == engine.OutcomeMatch {
		events = append(events, newEvent("victory",
			fmt.Sprintf("All %d pairs found", state.SolvedPairs), nil))
	}
	return events
}

func newEvent(kind, message string, index *int) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Index:     index,
	}
}

// IsHalted reports whether err means the session's engine stopped after an
// invariant violation.
func IsHalted(err error) bool {
	return errors.Is(err, engine.ErrLoopHalted) || errors.Is(err, engine.ErrLoopStopped)
}
