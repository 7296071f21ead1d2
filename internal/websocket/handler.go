package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway is what the transport needs from the realtime gateway. Defined
// here so the packages depend on each other only through interfaces.
type Gateway interface {
	Connect(ctx context.Context, sid, token string) error
	Disconnect(ctx context.Context, sid string) error
	JoinConversation(ctx context.Context, sid, conversationID string) error
	LeaveConversation(ctx context.Context, sid, conversationID string) error
	JoinBusinessGroup(ctx context.Context, sid string) error
	LeaveBusinessGroup(ctx context.Context, sid string) error
	MarkAsRead(ctx context.Context, sid, conversationID, lastReadMessageID string) error
}

type Handler struct {
	hub     *Hub
	gateway Gateway
}

func NewHandler(hub *Hub, gateway Gateway) *Handler {
	return &Handler{
		hub:     hub,
		gateway: gateway,
	}
}

// Serve upgrades the request and runs the handshake. The token travels in
// the `token` query parameter because browsers cannot set headers on a
// websocket upgrade.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	// Upgrade writes its own handshake error response on failure.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}

	sid := uuid.NewString()
	cl := &WSClient{
		Conn:    conn,
		Message: make(chan *WSMessage, 10),
		SID:     sid,
		done:    make(chan struct{}),
	}

	h.hub.register <- cl

	go cl.keepAlive()
	go cl.writeMessage()

	token := r.URL.Query().Get("token")
	if err := h.gateway.Connect(context.Background(), sid, token); err != nil {
		log.Printf("Connect failed for client %s: %v", sid, err)
	}

	go cl.readMessage(h)
}

// dispatch routes one inbound frame to the gateway. Nothing a client sends
// may crash the read pump; failures end up in the log and, where meaningful,
// as an `error` event emitted by the gateway itself.
func (h *Handler) dispatch(cl *WSClient, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("Malformed frame from client %s: %v", cl.SID, err)
		h.hub.EmitToConn(cl.SID, "error", map[string]string{"message": "malformed frame"})
		return
	}

	ctx := context.Background()

	switch frame.Event {
	case eventJoinConversation:
		var req joinConversationReq
		decodeData(frame.Data, &req)
		if err := h.gateway.JoinConversation(ctx, cl.SID, req.ConversationID); err != nil {
			log.Printf("join_conversation for client %s: %v", cl.SID, err)
		}

	case eventLeaveConversation:
		var req joinConversationReq
		decodeData(frame.Data, &req)
		if err := h.gateway.LeaveConversation(ctx, cl.SID, req.ConversationID); err != nil {
			log.Printf("leave_conversation for client %s: %v", cl.SID, err)
		}

	case eventJoinBusinessGroup:
		if err := h.gateway.JoinBusinessGroup(ctx, cl.SID); err != nil {
			log.Printf("join_business_group for client %s: %v", cl.SID, err)
		}

	case eventLeaveBusinessGroup:
		if err := h.gateway.LeaveBusinessGroup(ctx, cl.SID); err != nil {
			log.Printf("leave_business_group for client %s: %v", cl.SID, err)
		}

	case eventMarkAsRead:
		var req markAsReadReq
		decodeData(frame.Data, &req)
		if err := h.gateway.MarkAsRead(ctx, cl.SID, req.ConversationID, req.LastReadMessageID); err != nil {
			log.Printf("mark_as_read for client %s: %v", cl.SID, err)
		}

	default:
		log.Printf("Unknown event %q from client %s", frame.Event, cl.SID)
	}
}

// decodeData tolerates a missing payload; field-level validation happens in
// the gateway.
func decodeData(raw json.RawMessage, v interface{}) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("Bad event payload: %v", err)
	}
}
