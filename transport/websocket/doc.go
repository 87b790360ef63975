// Package websocket provides WebSocket transport for the memory game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every flip, conceal and reset
//   - Client actions (flip, bulk flip, reset) over the same connection
//
// Architecture:
//
// A central Hub owns every connection. Registration, broadcast and replies
// all pass through the goroutine running Hub.Run, so the client map is never
// shared. Each connection has a read pump and a write pump.
//
// BroadcastState is called from session event loops and never blocks: when
// the hub queue is full the update is dropped and a later one supersedes it.
//
// Message Protocol:
//
// Messages are JSON-encoded:
//   - Incoming: {"action": "flip", "index": 3}
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "game_state": {...}}
//   - Replies:  {"session_id": "ab12", "event": "flip_result", "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetHandler(handler)
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.ServeWS(w, r, sessionID, currentState)
package websocket
