// Package session provides session management for the memory game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - One event loop per session, owning that session's engine
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager creates, finds and retires sessions. Each service.Session it
// creates gets its own engine.Loop, started on a dedicated goroutine, and an
// engine that uses the loop as its scheduler. Flips and mismatch conceals of
// a session are therefore serialized without any lock on the engine itself.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(session.WithChangeListener(hub.BroadcastState))
//
//	sess, err := manager.Create("", "classic", config)
//	err = sess.Do(ctx, func(e *engine.GameEngine) error {
//		e.Flip(3)
//		return nil
//	})
//
// Cleanup:
//
// Delete and CleanupExpiredSessions stop the session loop, which drops any
// pending conceal. RunCleanup does the latter on a ticker.
package session
