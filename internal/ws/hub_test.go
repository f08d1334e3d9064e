package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return hub, conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, got %d", want, hub.ClientCount())
}

func TestBroadcastReachesClient(t *testing.T) {
	t.Parallel()

	hub, conn := dialTestHub(t)
	waitForClients(t, hub, 1)

	hub.Broadcast("reminder_created", map[string]any{"id": "abc"})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline failed: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if msg.Type != "reminder_created" {
		t.Errorf("Expected reminder_created, got %s", msg.Type)
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok || payload["id"] != "abc" {
		t.Errorf("Unexpected payload: %+v", msg.Payload)
	}
}

func TestClientCountTracksDisconnect(t *testing.T) {
	t.Parallel()

	hub, conn := dialTestHub(t)
	waitForClients(t, hub, 1)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	waitForClients(t, hub, 0)
}

func TestBroadcastDropsDeadClient(t *testing.T) {
	t.Parallel()

	hub, conn := dialTestHub(t)
	waitForClients(t, hub, 1)

	// Close the underlying connection so the next write fails
	if err := conn.UnderlyingConn().Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.Broadcast("ping", nil)
		if hub.ClientCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("Expected the dead client to be dropped, count %d", hub.ClientCount())
}

func TestCloseAll(t *testing.T) {
	t.Parallel()

	hub, _ := dialTestHub(t)
	waitForClients(t, hub, 1)

	hub.CloseAll()
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after CloseAll, got %d", hub.ClientCount())
	}
}
