// Package service provides the business logic layer for the memory game.
//
// The service package implements:
//   - Multi-session game management
//   - Flip and bulk flip processing
//   - Paginated flip history
//   - Deck listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages deck loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and the
// engine. Every engine call goes through Session.Do, which runs it on the
// session's event loop. Two clients flipping in the same session are
// therefore applied one after the other, and a mismatch conceal can never
// interleave with a flip.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//
//	result, err := gameService.Flip(ctx, info.ID, 5)
//
// Errors:
//
// ErrSessionNotFound and ErrIndexOutOfRange are returned wrapped; test with
// errors.Is. A session whose engine hit an invariant violation answers every
// call with an error for which IsHalted reports true.
package service
