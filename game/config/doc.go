// Package config provides deck management for the memory game.
//
// The config package handles:
//   - Loading decks from JSON files
//   - Deck validation before any board is built
//   - Default deck management
//   - Deck discovery and listing
//
// Deck Format:
//
// Decks are stored as JSON files in the configs directory. Each deck defines
// a catalog of tile kinds, an optional fixed layout, the mismatch conceal
// delay and the messages shown to players:
//
//	{
//	  "name": "classic",
//	  "description": "Eight icons, sixteen tiles",
//	  "kinds": ["at", "bicycle", "bus", "cloud"],
//	  "conceal_delay_ms": 1000,
//	  "messages": {"welcome": "Find all the pairs!", "victory": "All %d pairs found!"}
//	}
//
// A deck named classic is always available. When configs/classic.json is
// missing or invalid the manager serves the built-in deck instead.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal().Err(err).Msg("config")
//	}
//
//	deck, err := manager.LoadConfig("tutorial")
//	defaultDeck := manager.GetDefault()
//	decks, err := manager.ListConfigs()
package config
