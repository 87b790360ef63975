package api

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/transport/websocket"
)

// ClientHandler turns WebSocket client actions into service calls.
type ClientHandler struct {
	service service.GameService
}

var _ websocket.Handler = (*ClientHandler)(nil)

// NewClientHandler creates a handler backed by gameService.
func NewClientHandler(gameService service.GameService) *ClientHandler {
	return &ClientHandler{service: gameService}
}

// HandleClientMessage runs one client action against the session.
func (h *ClientHandler) HandleClientMessage(ctx context.Context, sessionID string, msg websocket.ClientMessage) (interface{}, error) {
	switch msg.Action {
	case "flip":
		if msg.Index == nil {
			return nil, fmt.Errorf("flip requires an index")
		}
		return h.service.Flip(ctx, sessionID, *msg.Index)
	case "bulk_flip":
		return h.service.BulkFlip(ctx, sessionID, msg.Indices, false)
	case "reset":
		return h.service.Reset(ctx, sessionID)
	case "state":
		return h.service.GetGameState(ctx, sessionID)
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
}
