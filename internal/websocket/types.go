package websocket

import "encoding/json"

// Inbound event names the transport accepts from clients.
const (
	eventJoinBusinessGroup  = "join_business_group"
	eventLeaveBusinessGroup = "leave_business_group"
	eventJoinConversation   = "join_conversation"
	eventLeaveConversation  = "leave_conversation"
	eventMarkAsRead         = "mark_as_read"
)

// WSMessage is one event frame on the wire, both directions.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// inboundFrame keeps the payload raw until the event name says how to
// decode it.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinConversationReq struct {
	ConversationID string `json:"conversation_id"`
}

type markAsReadReq struct {
	ConversationID    string `json:"conversation_id"`
	LastReadMessageID string `json:"last_read_message_id"`
}

// envelope is the cross-instance fan-out format published on the Redis room
// channels.
type envelope struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type roomChange struct {
	sid  string
	room string
}

type roomMessage struct {
	room string
	msg  *WSMessage
}

type directMessage struct {
	sid string
	msg *WSMessage
}
