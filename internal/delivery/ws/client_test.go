package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/chat-together/internal/domain"
)

func TestNewClient(t *testing.T) {
	hub := NewHub(HubOptions{})

	client := NewClient(hub, nil)

	if client.ID == "" {
		t.Error("Expected a connection id")
	}
	if client.hub != hub {
		t.Error("Expected client.hub to be the same as input hub")
	}
	if cap(client.send) != domain.SendBufferSize {
		t.Errorf("Expected send buffer %d, got %d", domain.SendBufferSize, cap(client.send))
	}
	if other := NewClient(hub, nil); other.ID == client.ID {
		t.Error("connection ids must be unique")
	}
}

func TestClient_SendBufferFull(t *testing.T) {
	client := &Client{send: make(chan []byte, 2)}

	if !client.Send([]byte("msg1")) || !client.Send([]byte("msg2")) {
		t.Fatal("Expected first two sends to succeed")
	}
	if client.Send([]byte("msg3")) {
		t.Error("Expected send on a full buffer to report false")
	}
}

// serveTestHub exposes a hub over a real websocket endpoint
func serveTestHub(t *testing.T, hub *Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, event domain.EventType, payload interface{}) {
	t.Helper()
	raw, _ := json.Marshal(payload)
	if err := conn.WriteJSON(domain.Envelope{Type: event, Payload: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads frames until one of the given type arrives
func readUntil(t *testing.T, conn *websocket.Conn, event domain.EventType) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read while waiting for %s: %v", event, err)
		}
		if env.Type == event {
			return env
		}
	}
}

func TestClient_EndToEndJoinAndChat(t *testing.T) {
	hub := startHub(t, newFakeProfiles(nil))
	url := serveTestHub(t, hub)

	alice := dial(t, url)
	writeEvent(t, alice, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "alice", Room: "Global"})
	readUntil(t, alice, domain.EventRoomUsers)

	// Garbage frames are ignored and the connection stays up
	alice.WriteMessage(websocket.TextMessage, []byte("not json"))

	writeEvent(t, alice, domain.EventChatMessage, "hello")
	var msg domain.ChatMessage
	json.Unmarshal(readUntil(t, alice, domain.EventMessage).Payload, &msg)
	if msg.Text != "hello" || msg.Username != "alice" {
		t.Errorf("unexpected message %+v", msg)
	}

	dup := dial(t, url)
	writeEvent(t, dup, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "alice", Room: "Global"})
	readUntil(t, dup, domain.EventUsernameError)
}

func TestClient_KickNoticeArrivesBeforeClose(t *testing.T) {
	hub := startHub(t, newFakeProfiles(map[string]string{"root": domain.RoleAdmin}))
	url := serveTestHub(t, hub)

	root := dial(t, url)
	writeEvent(t, root, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "root", Room: "Global"})
	readUntil(t, root, domain.EventRoomUsers)

	bob := dial(t, url)
	writeEvent(t, bob, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "bob", Room: "Global"})
	readUntil(t, bob, domain.EventRoomUsers)

	writeEvent(t, root, domain.EventKickUser, "bob")

	env := readUntil(t, bob, domain.EventUsernameError)
	var notice string
	json.Unmarshal(env.Payload, &notice)
	if notice != KickNotice {
		t.Errorf("unexpected notice %q", notice)
	}

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := bob.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				t.Errorf("Expected close frame, got %v", err)
			}
			break
		}
	}
}

func TestClient_SocketCloseLeavesRoom(t *testing.T) {
	hub := startHub(t, newFakeProfiles(nil))
	url := serveTestHub(t, hub)

	alice := dial(t, url)
	writeEvent(t, alice, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "alice", Room: "Global"})
	readUntil(t, alice, domain.EventRoomUsers)

	bob := dial(t, url)
	writeEvent(t, bob, domain.EventJoinRoom, domain.JoinRoomPayload{Username: "bob", Room: "Global"})
	readUntil(t, bob, domain.EventRoomUsers)
	bob.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var msg domain.ChatMessage
		json.Unmarshal(readUntil(t, alice, domain.EventMessage).Payload, &msg)
		if msg.Text == "bob has left the room." {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no leave announcement")
		}
	}
}
