// Package api provides HTTP REST API handlers for the memory game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session and cancel its pending conceal
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board, face-down kinds hidden
//   - POST /api/sessions/{id}/flip - Flip one tile ({"index": 3})
//   - POST /api/sessions/{id}/bulk-flip - Flip a sequence ({"indices": [0, 5], "reset": false})
//   - POST /api/sessions/{id}/reset - Deal a fresh board
//   - GET /api/sessions/{id}/history - Flip history (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List decks
//   - POST /api/configs - Save a deck
//   - GET /api/configs/{name} - Get deck
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket upgrade, see package websocket
//
// Errors are returned as JSON, {"error": "message"}, with the status chosen
// from the error chain: 404 for unknown sessions and decks, 400 for bad input,
// 409 for a session halted by an engine fault, 500 otherwise.
package api
