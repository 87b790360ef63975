package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Every tile kind appears exactly twice, face down. Flip two tiles per turn to find matching pairs.
Solve all pairs to win.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get current board
- flip_tile: Flip a single tile by index
- bulk_flip: Flip several tiles in sequence
- reset_game: Deal a fresh board
- flip_history: View past flips
- list_configs: List available decks
- game_instructions: Get the full rules

NOTE: After a mismatch the board is locked until both tiles turn back face down. Flips sent while locked are ignored.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional deck selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the deck to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board. Face-down tiles show as ??",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_tile",
		Description: "Flip one tile face up (or back down if it is the only face-up tile)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Tile index (0-based)",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleFlip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_flip",
		Description: "Flip tiles in sequence. Stops early when a mismatch locks the board or the game is won",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"indices": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer"},
					"description": "Tile indices to flip in order",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before flipping",
				},
			},
			Required: []string{"session_id", "indices"},
		},
	}, c.handleBulkFlip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Deal a fresh shuffled board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_history",
		Description: "Get flip history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFlipHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available decks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages over POST, for clients that
// reach the game through the HTTP server instead of stdio.
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if response == nil {
			// notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Warn().Err(err).Msg("failed to encode MCP response")
		}
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// intArg accepts JSON numbers, which decode as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Pairs: %d/%d", s.GameState.SolvedPairs, s.GameState.TotalPairs)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s%s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), progress)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleFlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/flip")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, ok := intArg(args, "index")
	if !ok {
		return mcp.NewToolResultError("index must be an integer"), nil
	}

	var result service.FlipResult
	if err := c.apiCall(ctx, "POST", path, map[string]int{"index": index}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFlipResult(&result)), nil
}

func (c *Client) handleBulkFlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-flip")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset, _ := args["reset"].(bool)

	raw, _ := args["indices"].([]interface{})
	indices := make([]int, 0, len(raw))
	for i := range raw {
		index, ok := intArg(map[string]interface{}{"i": raw[i]}, "i")
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("indices[%d] must be an integer", i)), nil
		}
		indices = append(indices, index)
	}

	body := map[string]interface{}{
		"indices": indices,
		"reset":   reset,
	}

	var result service.BulkFlipResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkFlipResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleFlipHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Decks:\n\n")
	for _, cfg := range configs {
		layout := "shuffled"
		if cfg.FixedLayout {
			layout = "fixed layout"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Pairs: %d, Tiles: %d, %s, conceal delay %dms\n\n",
			cfg.ConfigID, cfg.Name, cfg.Description, cfg.Kinds, cfg.TotalTiles, layout, cfg.ConcealDelayMs)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Memory Game - Instructions

GAME OBJECTIVE:
The board holds every tile kind of the deck exactly twice, shuffled and face down.
Find all matching pairs.

HOW A TURN WORKS:
• Flip a face-down tile: it turns face up and becomes pending.
• Flip a second tile:
  - Same kind: both tiles stay face up for good (solved).
  - Different kind: the board locks, and after a short delay both tiles turn face down again.
• Flipping your only pending tile again turns it back face down.

RULES:
• While the board is locked, every flip is ignored (status ignored_locked).
• Flips on solved tiles are ignored (status ignored_solved).
• A flip index outside the board is rejected with an error.
• Victory: every pair solved.

BOARD DISPLAY:
• ??      face-down tile
• cat*    face-up, waiting for its partner
• [cat]   solved

STRATEGY:
• Remember every kind you have seen and where. The kinds of face-down tiles are never revealed.
• If you already know where both tiles of a kind are, flip them back to back.
• After a mismatch, wait for the board to unlock (game_state shows "locked") before flipping again.
• bulk_flip stops at the first mismatch, so you can safely queue a known pair after an exploratory one.

SESSION MANAGEMENT:
• Multiple sessions can run simultaneously, each with a 4-character ID.
• Sessions keep independent boards and history.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// boardWidth picks a near-square layout for n tiles.
func boardWidth(n int) int {
	if n <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

func tileLabel(t engine.TileState, pending map[int]bool) string {
	switch {
	case t.Solved:
		return "[" + string(t.Kind) + "]"
	case t.Visible && pending[t.Index]:
		return string(t.Kind) + "*"
	case t.Visible:
		return string(t.Kind)
	default:
		return "??"
	}
}

func formatBoard(state *engine.GameState) string {
	pending := make(map[int]bool, len(state.PendingTiles))
	for _, i := range state.PendingTiles {
		pending[i] = true
	}

	labels := make([]string, len(state.Tiles))
	cellWidth := 0
	for i, t := range state.Tiles {
		labels[i] = fmt.Sprintf("%2d:%s", t.Index, tileLabel(t, pending))
		if len(labels[i]) > cellWidth {
			cellWidth = len(labels[i])
		}
	}

	var b strings.Builder
	width := boardWidth(len(labels))
	for i, label := range labels {
		b.WriteString(label)
		if (i+1)%width == 0 || i == len(labels)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", cellWidth-len(label)+2))
		}
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	lock := "open"
	if state.Disabled {
		lock = "locked"
	}
	fmt.Fprintf(&b, "Pairs: %d/%d | Flips: %d | Board: %s\n\n",
		state.SolvedPairs, state.TotalPairs, state.TotalFlips, lock)

	b.WriteString(formatBoard(state))

	if state.Victory {
		b.WriteString("\n🎉 VICTORY!")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatFlipResult(result *service.FlipResult) string {
	var b strings.Builder
	switch {
	case !result.Success:
		fmt.Fprintf(&b, "✗ Flip of tile %d ignored (%s)\n", result.Index, result.Status)
	default:
		fmt.Fprintf(&b, "✓ Flipped tile %d\n", result.Index)
	}

	switch result.Resolution.Outcome {
	case engine.OutcomeMatch:
		fmt.Fprintf(&b, "Match: tiles %d and %d\n", result.Resolution.First, result.Resolution.Second)
	case engine.OutcomeMismatch:
		fmt.Fprintf(&b, "Mismatch: tiles %d and %d turn back face down shortly\n", result.Resolution.First, result.Resolution.Second)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkFlipResult(result *service.BulkFlipResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Executed %d/%d flips", result.FlipsExecuted, result.RequestedFlips)
	if result.SolvedPairsDelta > 0 {
		fmt.Fprintf(&b, ", %d new pair(s)", result.SolvedPairsDelta)
	}
	b.WriteString("\n")
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on flip %d: %s\n", result.StoppedOnFlip, result.StoppedReason)
	}
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to %d flips\n", result.Limit)
	}

	if len(result.Flips) > 0 {
		b.WriteString("\nFlips:\n")
		for i, f := range result.Flips {
			fmt.Fprintf(&b, "%d. tile %d %s", i+1, f.Index, f.Status)
			if f.Resolution.Outcome != "" && f.Resolution.Outcome != engine.OutcomeNone {
				fmt.Fprintf(&b, " → %s (%d,%d)", f.Resolution.Outcome, f.Resolution.First, f.Resolution.Second)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flip History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalFlips)

	for _, flip := range history.Flips {
		kind := string(flip.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(&b, "#%d tile %d %s %s", flip.FlipNumber, flip.Index, kind, flip.Status)
		if flip.Outcome != "" && flip.Outcome != engine.OutcomeNone {
			fmt.Fprintf(&b, " → %s", flip.Outcome)
		}
		b.WriteString("\n")
	}

	return b.String()
}
