package autoplay

import "github.com/wricardo/mcp-training/memorygame/game/engine"

// MemoryStrategy never forgets a tile it has seen. It finishes a board of n
// pairs in at most 4n flips.
type MemoryStrategy struct {
	known map[int]engine.TileKind
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{known: make(map[int]engine.TileKind)}
}

// Reset forgets every tile, for a freshly dealt board.
func (s *MemoryStrategy) Reset() {
	s.known = make(map[int]engine.TileKind)
}

// Known returns how many tile kinds have been remembered.
func (s *MemoryStrategy) Known() int {
	return len(s.known)
}

// Observe records every kind the state reveals.
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	for _, tile := range state.Tiles {
		if tile.Kind != "" {
			s.known[tile.Index] = tile.Kind
		}
	}
}

// Next picks the tile to flip on an unlocked board. It returns false when no
// unsolved tile is left.
func (s *MemoryStrategy) Next(state *engine.GameState) (int, bool) {
	s.Observe(state)

	pending := -1
	if len(state.PendingTiles) == 1 {
		pending = state.PendingTiles[0]
	}

	candidate := func(i int) bool {
		return i != pending && !state.Tiles[i].Solved
	}

	if pending >= 0 {
		if kind, ok := s.known[pending]; ok {
			for _, tile := range state.Tiles {
				if candidate(tile.Index) && s.known[tile.Index] == kind {
					return tile.Index, true
				}
			}
		}
		return s.unseen(state, candidate)
	}

	// A remembered pair is a free match.
	firstOf := make(map[engine.TileKind]int)
	for _, tile := range state.Tiles {
		kind, ok := s.known[tile.Index]
		if !ok || !candidate(tile.Index) {
			continue
		}
		if first, seen := firstOf[kind]; seen {
			return first, true
		}
		firstOf[kind] = tile.Index
	}

	return s.unseen(state, candidate)
}

func (s *MemoryStrategy) unseen(state *engine.GameState, candidate func(int) bool) (int, bool) {
	fallback := -1
	for _, tile := range state.Tiles {
		if !candidate(tile.Index) {
			continue
		}
		if _, ok := s.known[tile.Index]; !ok {
			return tile.Index, true
		}
		if fallback < 0 {
			fallback = tile.Index
		}
	}
	return fallback, fallback >= 0
}
