package autoplay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

var ErrMaxFlips = errors.New("flip limit reached before victory")

// Options tunes a Player.
type Options struct {
	MaxFlips     int           // applied flips per game, 0 means 4 per pair
	PollInterval time.Duration // wait between state polls while the board is locked
	Delay        time.Duration // pause after every flip
}

// Stats summarizes one finished game.
type Stats struct {
	Flips      int
	Ignored    int
	Matches    int
	Mismatches int
	Polls      int
	Victory    bool
	Duration   time.Duration
}

// Player drives a session to victory with a MemoryStrategy.
type Player struct {
	client   *Client
	strategy *MemoryStrategy
	opts     Options
}

func NewPlayer(client *Client, opts Options) *Player {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	return &Player{
		client:   client,
		strategy: NewMemoryStrategy(),
		opts:     opts,
	}
}

// Play flips tiles from state until the board is solved.
func (p *Player) Play(ctx context.Context, state *engine.GameState) (*Stats, error) {
	if state == nil {
		return nil, fmt.Errorf("no game state to play")
	}

	start := time.Now()
	stats := &Stats{}
	maxFlips := p.opts.MaxFlips
	if maxFlips <= 0 {
		maxFlips = 4 * state.TotalPairs
	}

	p.strategy.Reset()
	p.strategy.Observe(state)

	for !state.Victory {
		if stats.Flips >= maxFlips || stats.Ignored >= maxFlips {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("%w: %d flips", ErrMaxFlips, stats.Flips)
		}

		if state.Disabled {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(p.opts.PollInterval):
			}
			next, err := p.client.GetState(ctx)
			if err != nil {
				return stats, err
			}
			stats.Polls++
			state = next
			continue
		}

		index, ok := p.strategy.Next(state)
		if !ok {
			return stats, fmt.Errorf("no unsolved tile left on an unfinished board")
		}

		result, err := p.client.Flip(ctx, index)
		if err != nil {
			return stats, err
		}
		state = result.GameState
		p.strategy.Observe(state)

		if result.Status != engine.FlipApplied {
			stats.Ignored++
			continue
		}
		stats.Flips++
		switch result.Resolution.Outcome {
		case engine.OutcomeMatch:
			stats.Matches++
		case engine.OutcomeMismatch:
			stats.Mismatches++
		}

		log.Debug().
			Int("index", index).
			Str("outcome", string(result.Resolution.Outcome)).
			Int("solved", state.SolvedPairs).
			Int("total", state.TotalPairs).
			Msg("autoplay flip")

		if p.opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(p.opts.Delay):
			}
		}
	}

	stats.Victory = true
	stats.Duration = time.Since(start)
	return stats, nil
}
