package autoplay

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
)

const fixedDeck = `{
	"name": "Fixed",
	"description": "Three kinds in a known order",
	"kinds": ["a", "b", "c"],
	"layout": ["a", "b", "c", "a", "b", "c"],
	"conceal_delay_ms": 100,
	"messages": {"welcome": "Go", "victory": "All %d pairs"}
}`

const shuffledDeck = `{
	"name": "Shuffled",
	"description": "Four kinds dealt at random",
	"kinds": ["w", "x", "y", "z"],
	"conceal_delay_ms": 100,
	"messages": {"welcome": "Go", "victory": "All %d pairs"}
}`

func newServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed.json"), []byte(fixedDeck), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shuffled.json"), []byte(shuffledDeck), 0644))

	configs, err := config.NewManager(dir)
	require.NoError(t, err)
	sessions := session.NewManager()
	t.Cleanup(sessions.CloseAll)

	server := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil))
	t.Cleanup(server.Close)
	return server.URL
}

func hiddenState(n int) *engine.GameState {
	state := &engine.GameState{TotalPairs: n / 2, PendingTiles: []int{}}
	for i := 0; i < n; i++ {
		state.Tiles = append(state.Tiles, engine.TileState{Index: i})
	}
	return state
}

func TestMemoryStrategy_Next(t *testing.T) {
	s := NewMemoryStrategy()

	state := hiddenState(4)
	index, ok := s.Next(state)
	require.True(t, ok)
	assert.Equal(t, 0, index, "first unseen tile")

	// Tile 0 face up, partner unknown: explore.
	state.Tiles[0] = engine.TileState{Index: 0, Kind: "sun", Visible: true}
	state.PendingTiles = []int{0}
	index, _ = s.Next(state)
	assert.Equal(t, 1, index)

	// Both concealed again, but remembered; tile 2 turns out to be a sun.
	state = hiddenState(4)
	state.Tiles[2] = engine.TileState{Index: 2, Kind: "sun", Visible: true}
	state.PendingTiles = []int{2}
	index, _ = s.Next(state)
	assert.Equal(t, 0, index, "known partner of the pending tile")

	// Remembered pair with nothing pending.
	index, _ = s.Next(hiddenState(4))
	assert.Equal(t, 0, index)
	assert.Equal(t, 2, s.Known())

	s.Reset()
	assert.Equal(t, 0, s.Known())
}

func TestMemoryStrategy_SkipsSolved(t *testing.T) {
	s := NewMemoryStrategy()
	state := hiddenState(4)
	for _, i := range []int{0, 3} {
		state.Tiles[i] = engine.TileState{Index: i, Kind: "moon", Solved: true}
	}

	index, ok := s.Next(state)
	require.True(t, ok)
	assert.Equal(t, 1, index)

	for i := range state.Tiles {
		state.Tiles[i].Solved = true
	}
	_, ok = s.Next(state)
	assert.False(t, ok)
}

func TestPlayer_SolvesFixedLayout(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newServer(t) + "/")

	state, err := client.CreateSession(ctx, "fixed")
	require.NoError(t, err)
	require.NotEmpty(t, client.SessionID())
	assert.Equal(t, 3, state.TotalPairs)

	stats, err := NewPlayer(client, Options{PollInterval: 20 * time.Millisecond}).Play(ctx, state)
	require.NoError(t, err)

	assert.True(t, stats.Victory)
	assert.Equal(t, 10, stats.Flips)
	assert.Equal(t, 3, stats.Matches)
	assert.Equal(t, 2, stats.Mismatches)
	assert.Zero(t, stats.Ignored)
	assert.GreaterOrEqual(t, stats.Polls, 2, "waits out both conceal delays")

	final, err := client.GetState(ctx)
	require.NoError(t, err)
	assert.True(t, final.Victory)
	assert.Equal(t, 3, final.SolvedPairs)
	assert.Equal(t, 10, final.TotalFlips)
}

func TestPlayer_SolvesShuffledDeck(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newServer(t))

	state, err := client.CreateSession(ctx, "shuffled")
	require.NoError(t, err)

	stats, err := NewPlayer(client, Options{PollInterval: 20 * time.Millisecond}).Play(ctx, state)
	require.NoError(t, err)
	assert.True(t, stats.Victory)
	assert.Equal(t, 4, stats.Matches)
	assert.LessOrEqual(t, stats.Flips, 16)

	// A second game on the same session starts from a fresh deal.
	state, err = client.Reset(ctx)
	require.NoError(t, err)
	assert.Zero(t, state.SolvedPairs)
	assert.False(t, state.Victory)

	stats, err = NewPlayer(client, Options{PollInterval: 20 * time.Millisecond}).Play(ctx, state)
	require.NoError(t, err)
	assert.True(t, stats.Victory)
}

func TestPlayer_MaxFlips(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newServer(t))

	state, err := client.CreateSession(ctx, "fixed")
	require.NoError(t, err)

	stats, err := NewPlayer(client, Options{MaxFlips: 2}).Play(ctx, state)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxFlips))
	assert.Equal(t, 2, stats.Flips)
	assert.False(t, stats.Victory)
}

func TestPlayer_Canceled(t *testing.T) {
	client := NewClient(newServer(t))

	state, err := client.CreateSession(context.Background(), "fixed")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPlayer(client, Options{}).Play(ctx, state)
	require.Error(t, err)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	client := NewClient(newServer(t))

	_, err := client.CreateSession(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	client.UseSession("ffff")
	_, err = client.GetState(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = NewPlayer(client, Options{}).Play(ctx, nil)
	assert.Error(t, err)
}
