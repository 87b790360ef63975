package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("plain HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error: 500") {
			t.Errorf("Expected 'API error: 500', got: %v", err)
		}
	})

	t.Run("JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found: zz99"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session not found: zz99" {
			t.Errorf("Expected the API error message, got: %v", err)
		}
	})
}

func TestClient_handleFlipSendsIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions/ab12/flip" {
			t.Errorf("Expected POST /api/sessions/ab12/flip, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(service.FlipResult{
			Success:   true,
			Index:     body["index"],
			Status:    engine.FlipApplied,
			GameState: &engine.GameState{Tiles: []engine.TileState{{Index: 0}, {Index: 1}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleFlip(context.Background(), callRequest("flip_tile", map[string]interface{}{
		"session_id": "ab12",
		"index":      float64(1),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Flipped tile 1") {
		t.Errorf("Expected flip confirmation, got: %s", text)
	}
}

func TestClient_argumentValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		want    string
	}{
		{"missing session", client.handleGameState, map[string]interface{}{}, "session_id is required"},
		{"nil arguments", client.handleReset, nil, "session_id is required"},
		{"missing index", client.handleFlip, map[string]interface{}{"session_id": "ab12"}, "index must be an integer"},
		{"fractional index", client.handleFlip, map[string]interface{}{"session_id": "ab12", "index": 1.5}, "index must be an integer"},
		{"bad bulk index", client.handleBulkFlip, map[string]interface{}{"session_id": "ab12", "indices": []interface{}{float64(1), "two"}}, "indices[1] must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req mcp.CallToolRequest
			if tt.args != nil {
				req = callRequest("tool", tt.args)
			}
			result, err := tt.handler(ctx, req)
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsError {
				t.Error("Expected an error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, text)
			}
		})
	}
}

func TestFormatGameState(t *testing.T) {
	state := &engine.GameState{
		Tiles: []engine.TileState{
			{Index: 0, Kind: "cat", Visible: true, Solved: true},
			{Index: 1, Kind: "dog", Visible: true},
			{Index: 2},
			{Index: 3, Kind: "cat", Visible: true, Solved: true},
		},
		Disabled:     false,
		PendingTiles: []int{1},
		SolvedPairs:  1,
		TotalPairs:   2,
		TotalFlips:   3,
		Message:      "Match!",
	}

	result := formatGameState(state)

	for _, field := range []string{
		"Pairs: 1/2",
		"Flips: 3",
		"Board: open",
		" 0:[cat]",
		" 1:dog*",
		" 2:??",
		"Message: Match!",
	} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got:\n%s", field, result)
		}
	}

	// 4 tiles render as 2 rows of 2
	board := formatBoard(state)
	if lines := strings.Split(strings.TrimSuffix(board, "\n"), "\n"); len(lines) != 2 {
		t.Errorf("Expected 2 board rows, got %d:\n%s", len(lines), board)
	}
}

func TestFormatGameState_LockedAndVictory(t *testing.T) {
	locked := formatGameState(&engine.GameState{Disabled: true})
	if !strings.Contains(locked, "Board: locked") {
		t.Errorf("Expected locked board, got: %s", locked)
	}

	won := formatGameState(&engine.GameState{Victory: true, SolvedPairs: 2, TotalPairs: 2})
	if !strings.Contains(won, "🎉 VICTORY!") {
		t.Errorf("Expected victory banner, got: %s", won)
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatFlipResult(t *testing.T) {
	ignored := formatFlipResult(&service.FlipResult{
		Index:     4,
		Status:    engine.FlipIgnoredLocked,
		GameState: &engine.GameState{},
	})
	if !strings.Contains(ignored, "✗ Flip of tile 4 ignored (ignored_locked)") {
		t.Errorf("Unexpected ignored output: %s", ignored)
	}

	mismatch := formatFlipResult(&service.FlipResult{
		Success:    true,
		Index:      2,
		Status:     engine.FlipApplied,
		Resolution: engine.Resolution{Outcome: engine.OutcomeMismatch, First: 0, Second: 2},
		GameState:  &engine.GameState{Disabled: true},
	})
	if !strings.Contains(mismatch, "Mismatch: tiles 0 and 2") {
		t.Errorf("Unexpected mismatch output: %s", mismatch)
	}
}

func TestFormatBulkFlipResult(t *testing.T) {
	result := formatBulkFlipResult(&service.BulkFlipResult{
		FlipsExecuted:    2,
		RequestedFlips:   4,
		StoppedReason:    "mismatch locked the board",
		StoppedOnFlip:    2,
		SolvedPairsDelta: 0,
		Flips: []engine.FlipResult{
			{Index: 0, Status: engine.FlipApplied, Resolution: engine.Resolution{Outcome: engine.OutcomeNone}},
			{Index: 1, Status: engine.FlipApplied, Resolution: engine.Resolution{Outcome: engine.OutcomeMismatch, First: 0, Second: 1}},
		},
		GameState: &engine.GameState{Disabled: true},
	})

	for _, field := range []string{
		"Executed 2/4 flips",
		"Stopped on flip 2: mismatch locked the board",
		"2. tile 1 applied → mismatch (0,1)",
	} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in output, got:\n%s", field, result)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{
		"GAME OBJECTIVE:",
		"HOW A TURN WORKS:",
		"RULES:",
		"BOARD DISPLAY:",
		"ignored_locked",
	} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

const pairsDeck = `{
  "name": "Pairs",
  "description": "Two pairs in a fixed order",
  "kinds": ["sun", "moon"],
  "layout": ["sun", "moon", "sun", "moon"],
  "conceal_delay_ms": 10000,
  "messages": {"welcome": "Go!", "victory": "All %d pairs!"}
}`

// newStack runs the full REST API behind an httptest server.
func newStack(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pairs.json"), []byte(pairsDeck), 0644); err != nil {
		t.Fatal(err)
	}

	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager()
	t.Cleanup(sessions.CloseAll)

	server := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil))
	t.Cleanup(server.Close)

	return NewClient(server.URL)
}

func TestClient_PlayThroughAPI(t *testing.T) {
	client := newStack(t)
	ctx := context.Background()

	call := func(handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) string {
		t.Helper()
		result, err := handler(ctx, callRequest("tool", args))
		if err != nil {
			t.Fatal(err)
		}
		text := resultText(t, result)
		if result.IsError {
			t.Fatalf("Tool returned error: %s", text)
		}
		return text
	}

	created := call(client.handleCreateSession, map[string]interface{}{"config_id": "pairs"})
	if !strings.Contains(created, "Config: pairs") || !strings.Contains(created, "Pairs: 0/2") {
		t.Fatalf("Unexpected create output:\n%s", created)
	}
	sessionID := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(created, "Created session: "), "\n", 2)[0])

	listed := call(client.handleListSessions, map[string]interface{}{})
	if !strings.Contains(listed, sessionID) {
		t.Errorf("Expected %s in session list:\n%s", sessionID, listed)
	}

	match := call(client.handleBulkFlip, map[string]interface{}{
		"session_id": sessionID,
		"indices":    []interface{}{float64(0), float64(2)},
	})
	if !strings.Contains(match, "1 new pair(s)") || !strings.Contains(match, "[sun]") {
		t.Errorf("Expected a solved sun pair:\n%s", match)
	}

	flip := call(client.handleFlip, map[string]interface{}{"session_id": sessionID, "index": float64(1)})
	if !strings.Contains(flip, " 1:moon*") || !strings.Contains(flip, " 3:??") {
		t.Errorf("Expected tile 1 pending and tile 3 hidden:\n%s", flip)
	}

	won := call(client.handleFlip, map[string]interface{}{"session_id": sessionID, "index": float64(3)})
	if !strings.Contains(won, "VICTORY") {
		t.Errorf("Expected victory:\n%s", won)
	}

	history := call(client.handleFlipHistory, map[string]interface{}{"session_id": sessionID, "order": "asc"})
	if !strings.Contains(history, "Total: 4") || !strings.Contains(history, "#1 tile 0 sun applied") {
		t.Errorf("Unexpected history:\n%s", history)
	}

	decks := call(client.handleListConfigs, map[string]interface{}{})
	if !strings.Contains(decks, "pairs (Pairs)") || !strings.Contains(decks, "fixed layout") {
		t.Errorf("Unexpected deck list:\n%s", decks)
	}

	result, err := client.handleGameState(ctx, callRequest("game_state", map[string]interface{}{"session_id": "zz99"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("Expected error result for unknown session")
	}
}

func TestClient_HTTPHandler(t *testing.T) {
	handler := NewClient("http://localhost:8080").HTTPHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON-RPC response %q: %v", w.Body.String(), err)
	}
	if resp["id"] != float64(7) {
		t.Errorf("Expected response id 7, got %v", resp["id"])
	}
}
