package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// ValidateGameConfig validates a deck for correctness before any board is built
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConfig)
	}

	// Validate catalog
	if len(config.Kinds) == 0 {
		return fmt.Errorf("%w: kinds must not be empty", ErrInvalidConfig)
	}
	if len(config.Kinds) > MaxKinds {
		return fmt.Errorf("%w: at most %d kinds allowed, got %d", ErrInvalidConfig, MaxKinds, len(config.Kinds))
	}
	seen := make(map[TileKind]bool, len(config.Kinds))
	for i, kind := range config.Kinds {
		if strings.TrimSpace(string(kind)) == "" {
			return fmt.Errorf("%w: kind %d is empty", ErrInvalidConfig, i+1)
		}
		if seen[kind] {
			return fmt.Errorf("%w: duplicate kind %q", ErrInvalidConfig, kind)
		}
		seen[kind] = true
	}

	// Validate fixed layout against the catalog
	if len(config.Layout) > 0 {
		if len(config.Layout) != 2*len(config.Kinds) {
			return fmt.Errorf("%w: layout must have %d tiles (2 per kind), got %d",
				ErrInvalidConfig, 2*len(config.Kinds), len(config.Layout))
		}
		if err := ValidateLayout(config.Layout); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for i, kind := range config.Layout {
			if !seen[kind] {
				return fmt.Errorf("%w: layout tile %d uses unknown kind %q", ErrInvalidConfig, i, kind)
			}
		}
	}

	// Validate conceal delay
	if config.ConcealDelayMs != 0 {
		d := time.Duration(config.ConcealDelayMs) * time.Millisecond
		if d < MinConcealDelay || d > MaxConcealDelay {
			return fmt.Errorf("%w: conceal_delay_ms must be between %d and %d, got %d",
				ErrInvalidConfig, MinConcealDelay.Milliseconds(), MaxConcealDelay.Milliseconds(), config.ConcealDelayMs)
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("%w: messages.welcome is required", ErrInvalidConfig)
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("%w: messages.victory is required", ErrInvalidConfig)
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("%w: messages.victory must contain %%d for pair count", ErrInvalidConfig)
	}

	return nil
}

// LoadGameConfig loads and validates a deck from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultGameConfig returns the built-in deck: eight icons, sixteen tiles.
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Eight icons, sixteen tiles",
		Kinds: []TileKind{
			"at", "balance-scale", "bicycle", "bus",
			"cloud", "cogs", "motorcycle", "video",
		},
		ConcealDelayMs: int(DefaultConcealDelay.Milliseconds()),
	}
	config.Messages.Welcome = "Find all the pairs!"
	config.Messages.Match = "Match!"
	config.Messages.Mismatch = "No match, try again"
	config.Messages.Locked = "Wait for the tiles to turn back"
	config.Messages.AlreadySolved = "That tile is already solved"
	config.Messages.Victory = "All %d pairs found!"
	return config
}
