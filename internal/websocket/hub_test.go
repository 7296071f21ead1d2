package websocket

import (
	"testing"
	"time"
)

// newLocalHub returns a running hub without a Redis client, so every
// emission takes the local delivery path.
func newLocalHub() *Hub {
	hub := NewHub(nil)
	go hub.Run()
	return hub
}

func newFakeClient(sid string) *WSClient {
	return &WSClient{
		Message: make(chan *WSMessage, 10),
		SID:     sid,
		done:    make(chan struct{}),
	}
}

func receiveMessage(t *testing.T, cl *WSClient) *WSMessage {
	t.Helper()
	select {
	case msg := <-cl.Message:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s received no message", cl.SID)
		return nil
	}
}

func expectNoMessage(t *testing.T, cl *WSClient) {
	t.Helper()
	select {
	case msg := <-cl.Message:
		t.Fatalf("client %s unexpectedly received %q", cl.SID, msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoomBroadcast(t *testing.T) {
	hub := newLocalHub()

	inside := newFakeClient("sid-inside")
	outside := newFakeClient("sid-outside")
	hub.register <- inside
	hub.register <- outside
	hub.JoinRoom("sid-inside", "conv-1")

	hub.EmitToRoom("conv-1", "conversation_message_received", map[string]string{"conversation_id": "conv-1"})

	msg := receiveMessage(t, inside)
	if msg.Event != "conversation_message_received" {
		t.Fatalf("event = %q", msg.Event)
	}
	expectNoMessage(t, outside)
}

func TestHubDirectDelivery(t *testing.T) {
	hub := newLocalHub()

	first := newFakeClient("sid-1")
	second := newFakeClient("sid-2")
	hub.register <- first
	hub.register <- second

	hub.EmitToConn("sid-2", "session", map[string]string{"session": "sid-2"})

	msg := receiveMessage(t, second)
	if msg.Event != "session" {
		t.Fatalf("event = %q", msg.Event)
	}
	expectNoMessage(t, first)
}

func TestHubLeaveRoomStopsDelivery(t *testing.T) {
	hub := newLocalHub()

	cl := newFakeClient("sid-1")
	hub.register <- cl
	hub.JoinRoom("sid-1", "conv-1")
	hub.LeaveRoom("sid-1", "conv-1")

	hub.EmitToRoom("conv-1", "conversation_message_received", nil)
	expectNoMessage(t, cl)
}

func TestHubUnregisterClosesMessageChannel(t *testing.T) {
	hub := newLocalHub()

	cl := newFakeClient("sid-1")
	hub.register <- cl
	hub.JoinRoom("sid-1", "conv-1")
	hub.unregister <- cl

	select {
	case _, ok := <-cl.Message:
		if ok {
			t.Fatal("expected the message channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("message channel was not closed")
	}

	// The swept room must not deliver to the gone client.
	hub.EmitToRoom("conv-1", "conversation_message_received", nil)
}

func TestHubSweepsSlowConsumerWithoutStalling(t *testing.T) {
	hub := newLocalHub()

	healthy := newFakeClient("sid-healthy")
	stuck := newFakeClient("sid-stuck")
	hub.register <- healthy
	hub.register <- stuck
	hub.JoinRoom("sid-stuck", "conv-1")
	hub.JoinRoom("sid-healthy", "conv-1")

	// Simulate a write pump wedged mid-write: the connection lock is held
	// and the outbound buffer is full. The hub must not touch that lock.
	stuck.mu.Lock()
	defer stuck.mu.Unlock()
	for i := 0; i < cap(stuck.Message); i++ {
		stuck.Message <- &WSMessage{Event: "conversation_message_received"}
	}

	hub.EmitToRoom("conv-1", "conversation_message_received", nil)

	// Delivery to everyone else keeps working.
	if msg := receiveMessage(t, healthy); msg.Event != "conversation_message_received" {
		t.Fatalf("event = %q", msg.Event)
	}
	hub.EmitToConn("sid-healthy", "session", nil)
	if msg := receiveMessage(t, healthy); msg.Event != "session" {
		t.Fatalf("event = %q", msg.Event)
	}

	// The stalled client was swept: behind the buffered backlog the channel
	// is closed, which is what makes its write pump shut the socket down.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-stuck.Message:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stalled client's message channel was never closed")
		}
	}
}

func TestHubBroadcastToUnknownRoomIsNoop(t *testing.T) {
	hub := newLocalHub()

	cl := newFakeClient("sid-1")
	hub.register <- cl

	hub.EmitToRoom("conv-nobody", "conversation_message_received", nil)
	expectNoMessage(t, cl)
}
