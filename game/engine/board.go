package engine

import (
	"fmt"
	"math/rand/v2"
)

// Board is the ordered, fixed-size tile collection. Tiles are mutated in place
// and never reordered after construction.
type Board struct {
	tiles []Tile
}

// NewBoard duplicates every kind once and shuffles the result. A nil rng uses
// the package-level source. An empty catalog yields an empty board.
func NewBoard(kinds []TileKind, rng *rand.Rand) *Board {
	tiles := make([]Tile, 0, 2*len(kinds))
	for _, kind := range kinds {
		tiles = append(tiles, Tile{Kind: kind})
	}
	for _, kind := range kinds {
		tiles = append(tiles, Tile{Kind: kind})
	}

	swap := func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] }
	if rng != nil {
		rng.Shuffle(len(tiles), swap)
	} else {
		rand.Shuffle(len(tiles), swap)
	}

	return &Board{tiles: tiles}
}

// NewBoardFromLayout builds a board in the given order without shuffling.
func NewBoardFromLayout(layout []TileKind) (*Board, error) {
	if err := ValidateLayout(layout); err != nil {
		return nil, err
	}
	tiles := make([]Tile, len(layout))
	for i, kind := range layout {
		tiles[i] = Tile{Kind: kind}
	}
	return &Board{tiles: tiles}, nil
}

// ValidateLayout checks that a layout has an even length and every kind
// appears exactly twice.
func ValidateLayout(layout []TileKind) error {
	if len(layout)%2 != 0 {
		return fmt.Errorf("%w: odd tile count %d", ErrInvalidLayout, len(layout))
	}
	counts := make(map[TileKind]int, len(layout)/2)
	for i, kind := range layout {
		if kind == "" {
			return fmt.Errorf("%w: empty kind at index %d", ErrInvalidLayout, i)
		}
		counts[kind]++
	}
	for kind, n := range counts {
		if n != 2 {
			return fmt.Errorf("%w: kind %q appears %d times, want 2", ErrInvalidLayout, kind, n)
		}
	}
	return nil
}

// Len returns the number of tiles.
func (b *Board) Len() int {
	return len(b.tiles)
}

// InBounds reports whether index addresses a tile.
func (b *Board) InBounds(index int) bool {
	return index >= 0 && index < len(b.tiles)
}

// Tile returns a copy of the tile at index.
func (b *Board) Tile(index int) Tile {
	if !b.InBounds(index) {
		invariant("board.tile", "index %d out of range [0,%d)", index, len(b.tiles))
	}
	return b.tiles[index]
}

// Tiles returns a copy of every tile in board order.
func (b *Board) Tiles() []Tile {
	out := make([]Tile, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// Kinds returns the kind of every tile in board order.
func (b *Board) Kinds() []TileKind {
	out := make([]TileKind, len(b.tiles))
	for i, t := range b.tiles {
		out[i] = t.Kind
	}
	return out
}

// pending scans the board once and returns the indices of face-up, unsolved tiles.
func (b *Board) pending() []int {
	var idx []int
	for i, t := range b.tiles {
		if t.Pending() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (b *Board) setVisible(index int, visible bool) {
	b.tiles[index].Visible = visible
}

func (b *Board) setSolved(index int) {
	b.tiles[index].Solved = true
	b.tiles[index].Visible = true
}

// SolvedPairs counts matched pairs.
func (b *Board) SolvedPairs() int {
	n := 0
	for _, t := range b.tiles {
		if t.Solved {
			n++
		}
	}
	return n / 2
}

// AllSolved reports whether every tile is matched. An empty board is solved.
func (b *Board) AllSolved() bool {
	for _, t := range b.tiles {
		if !t.Solved {
			return false
		}
	}
	return true
}
