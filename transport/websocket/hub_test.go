package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func testState() *engine.GameState {
	return &engine.GameState{
		Tiles: []engine.TileState{
			{Index: 0, Kind: "cat", Visible: true},
			{Index: 1},
		},
		Disabled:     true,
		PendingTiles: []int{0},
		TotalPairs:   1,
		Message:      "hello",
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected buffered broadcast channel of %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil || hub.direct == nil {
		t.Error("Hub channels not initialized")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "s1")
	client2 := newTestClient(hub, "s1")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount("s1") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("s1"))
	}

	hub.unregisterClient(client1)
	if !hub.sessions["s1"][client2] {
		t.Error("client2 should still be registered")
	}
	if _, ok := <-client1.send; ok {
		t.Error("Expected client1 send channel to be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions["s1"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// unregistering twice is harmless
	hub.unregisterClient(client2)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "broadcast-test")
	other := newTestClient(hub, "other-session")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{SessionID: "broadcast-test", GameState: testState(), Event: EventStateUpdate})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event '%s', got %s", EventStateUpdate, message.Event)
		}
		if !message.GameState.Disabled || message.GameState.Tiles[0].Kind != "cat" {
			t.Errorf("GameState not correctly transmitted: %+v", message.GameState)
		}
	default:
		t.Error("No message queued for client")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the broadcast")
	default:
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "s", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "s", Event: "two"})

	if hub.ClientCount("s") != 0 {
		t.Error("Expected slow client to be unregistered")
	}
}

func TestHubBroadcastStateNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastState("s", testState())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastState blocked with no hub running")
	}

	if len(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected a full queue, got %d", len(hub.broadcast))
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" || message.Event != "custom-event" || message.Data != "test-data" {
			t.Errorf("Unexpected message: %+v", message)
		}
	default:
		t.Error("No broadcast message queued")
	}
}

func TestHubSendDirectIgnoresUnregistered(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "s")

	hub.sendDirect(&directMessage{client: client, data: []byte("x")})
	if len(client.send) != 0 {
		t.Error("Unregistered client must not receive direct messages")
	}

	hub.registerClient(client)
	hub.sendDirect(&directMessage{client: client, data: []byte("x")})
	if len(client.send) != 1 {
		t.Error("Registered client should receive direct message")
	}
}

type fakeHandler struct {
	fn func(ctx context.Context, sessionID string, msg ClientMessage) (interface{}, error)
}

func (f *fakeHandler) HandleClientMessage(ctx context.Context, sessionID string, msg ClientMessage) (interface{}, error) {
	return f.fn(ctx, sessionID, msg)
}

func startTestServer(t *testing.T, hub *Hub, initial *engine.GameState) string {
	t.Helper()
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"), initial)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message %s: %v", data, err)
	}
	return message
}

func TestWebSocketInitialStateAndBroadcast(t *testing.T) {
	hub := NewHub()
	url := startTestServer(t, hub, testState())

	conn := dial(t, url+"?session=ws-test")

	initial := readMessage(t, conn)
	if initial.Event != EventStateUpdate || initial.SessionID != "ws-test" {
		t.Fatalf("Expected initial state_update, got %+v", initial)
	}
	if initial.GameState.Message != "hello" {
		t.Errorf("Expected initial message 'hello', got %s", initial.GameState.Message)
	}

	next := testState()
	next.Disabled = false
	next.Message = "concealed"
	hub.BroadcastState("ws-test", next)

	update := readMessage(t, conn)
	if update.GameState.Message != "concealed" || update.GameState.Disabled {
		t.Errorf("Unexpected broadcast state: %+v", update.GameState)
	}
}

func TestWebSocketClientActions(t *testing.T) {
	hub := NewHub()
	hub.SetHandler(&fakeHandler{fn: func(ctx context.Context, sessionID string, msg ClientMessage) (interface{}, error) {
		if msg.Action != "flip" || msg.Index == nil {
			return nil, errors.New("unsupported action")
		}
		return map[string]interface{}{"session": sessionID, "index": *msg.Index}, nil
	}})
	url := startTestServer(t, hub, nil)

	conn := dial(t, url+"?session=act")

	t.Run("flip", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"flip","index":3}`)); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		reply := readMessage(t, conn)
		if reply.Event != EventFlipResult {
			t.Fatalf("Expected flip_result, got %+v", reply)
		}
		data := reply.Data.(map[string]interface{})
		if data["session"] != "act" || data["index"] != float64(3) {
			t.Errorf("Unexpected reply data: %v", data)
		}
	})

	t.Run("handler error", func(t *testing.T) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"dance"}`))
		reply := readMessage(t, conn)
		if reply.Event != EventError || reply.Data != "unsupported action" {
			t.Errorf("Expected error reply, got %+v", reply)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		reply := readMessage(t, conn)
		if reply.Event != EventError || !strings.HasPrefix(reply.Data.(string), "invalid message") {
			t.Errorf("Expected invalid message error, got %+v", reply)
		}
	})
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	url := startTestServer(t, hub, testState())

	conn := dial(t, url+"?session=stop")
	readMessage(t, conn)

	hub.Stop()
	hub.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if isTimeout(err) {
				t.Fatal("Expected connection to close after Stop")
			}
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
