package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorygame/autoplay"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/validate"
)

var errInvalidDecks = errors.New("some configurations have errors")

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check every deck file in a directory",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("config-dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			results, err := validate.Dir(dir)
			if err != nil {
				return err
			}
			if !validate.Report(cmd.Root().Writer, results) {
				return errInvalidDecks
			}
			return nil
		},
	}
}

func autoplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play a session to victory through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("MEMORYGAME_API_URL")},
			&cli.StringFlag{Name: "deck", Usage: "Deck to play (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the last session (empty disables)"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Games to play, resetting the board between them"},
			&cli.IntFlag{Name: "max-flips", Usage: "Flip limit per game (0 means 4 per pair)"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause after every flip"},
			&cli.DurationFlag{Name: "poll", Value: 50 * time.Millisecond, Usage: "State poll interval while the board is locked"},
		},
		Action: runAutoplay,
	}
}

func runAutoplay(ctx context.Context, cmd *cli.Command) error {
	log.Info().Str("url", cmd.String("url")).Msg("connecting to game server")
	client := autoplay.NewClient(cmd.String("url"))

	if err := openSession(ctx, client, cmd); err != nil {
		return err
	}

	player := autoplay.NewPlayer(client, autoplay.Options{
		MaxFlips:     int(cmd.Int("max-flips")),
		PollInterval: cmd.Duration("poll"),
		Delay:        cmd.Duration("delay"),
	})

	games := int(cmd.Int("games"))
	if games < 1 {
		games = 1
	}

	won := 0
	for game := 1; game <= games; game++ {
		state, err := client.Reset(ctx)
		if err != nil {
			return err
		}

		stats, err := player.Play(ctx, state)
		if err != nil {
			if errors.Is(err, autoplay.ErrMaxFlips) {
				log.Warn().Int("game", game).Int("flips", stats.Flips).Msg("gave up")
				continue
			}
			return err
		}

		won++
		log.Info().
			Int("game", game).
			Int("flips", stats.Flips).
			Int("mismatches", stats.Mismatches).
			Int("polls", stats.Polls).
			Dur("duration", stats.Duration).
			Msg("🎉 victory")
	}

	log.Info().Str("session", client.SessionID()).Int("won", won).Int("games", games).Msg("autoplay finished")
	if won < games {
		return fmt.Errorf("won %d of %d games", won, games)
	}
	return nil
}

// openSession resumes --continue or the saved session, and creates a new one
// when neither answers.
func openSession(ctx context.Context, client *autoplay.Client, cmd *cli.Command) error {
	sessionFile := cmd.String("session-file")

	savedID := cmd.String("continue")
	if savedID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedID = string(bytes.TrimSpace(data))
		}
	}

	if savedID != "" {
		client.UseSession(savedID)
		state, err := client.GetState(ctx)
		if err == nil {
			logSession("resumed session", client.SessionID(), state)
			return nil
		}
		log.Warn().Err(err).Str("session", savedID).Msg("failed to resume session, creating a new one")
	}

	state, err := client.CreateSession(ctx, cmd.String("deck"))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	logSession("session created", client.SessionID(), state)

	if sessionFile != "" {
		if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Warn().Err(err).Msg("failed to save session ID")
		}
	}
	return nil
}

func logSession(msg, id string, state *engine.GameState) {
	event := log.Info().Str("session", id)
	if state != nil {
		event = event.Int("pairs", state.TotalPairs).Int("solved", state.SolvedPairs)
	}
	event.Msg(msg)
}
