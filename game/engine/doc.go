// Package engine provides the core game logic for the memory tile game.
//
// The engine package implements:
//   - Board construction: every kind in the catalog is duplicated and the
//     tiles are shuffled uniformly
//   - Tile flipping guarded by the board lock and the solved flag
//   - Pair resolution after each flip, with a timed conceal on mismatch
//   - The board lock that blocks input while a conceal is pending
//   - Deck (configuration) loading and validation
//
// Core Types:
//
// GameEngine ties a Board, a LockState and a Resolver together behind the
// Engine interface. GameState is the snapshot handed to the presentation
// layer; GameConfig describes a deck loaded from JSON.
//
// Threading:
//
// A GameEngine is not safe for concurrent use. Each session owns a Loop, a
// single goroutine that executes flips, resets, snapshots and timer callbacks
// one at a time. The Loop is also the engine's Scheduler, so a mismatch
// conceal fires on the same logical thread as the flips around it.
//
// Usage:
//
//	loop := engine.NewLoop("a1b2", 64)
//	go loop.Run()
//	defer loop.Stop()
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithScheduler(loop))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = loop.Do(ctx, func() error {
//		result := gameEngine.Flip(3)
//		fmt.Println(result.Status, result.Resolution.Outcome)
//		return nil
//	})
//
// Failure Modes:
//
// Deck errors (empty catalog, odd layout, kinds not paired) are returned from
// NewEngine. Caller bugs such as an out-of-range index or more than two
// pending tiles panic with *InvariantError; a Loop recovers the panic and
// halts, so the session fails fast without taking the process down.
package engine
