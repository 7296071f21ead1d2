package gateway

import (
	"context"
	"encoding/json"
)

// Outbound event names. These are part of the wire contract with the web
// client and with other gateway instances, do not rename casually.
const (
	EventSession                         = "session"
	EventTokenExpired                    = "token_expired"
	EventError                           = "error"
	EventConversationJoined              = "conversation_joined"
	EventConversationLeft                = "conversation_left"
	EventBusinessGroupJoined             = "business_group_joined"
	EventBusinessGroupLeft               = "business_group_left"
	EventMessageReceived                 = "message_received"
	EventConversationMessageReceived     = "conversation_message_received"
	EventMessageStatus                   = "whatsapp_message_status"
	EventConversationAssignmentBusiness  = "conversation_assignment_businessgroup"
	EventConversationAssignmentChat      = "conversation_assignment_chat"
	EventConversationStatusBusinessGroup = "conversation_status_business_group"
	EventConversationStatusChat          = "conversation_status_chat"
	EventUnreadStatusUpdated             = "unread_status_updated"
)

// Session is the durable per-connection record mirrored in the store under
// the sid key. A second key maps the user id back to its current sid.
type Session struct {
	UserID            string `json:"userId"`
	BusinessProfileID string `json:"business_profile_id"`
	ConnectedAt       string `json:"connected_at"`
}

// Message is a normalized inbound WhatsApp message as produced by the
// webhook ingestion pipeline.
type Message struct {
	MessageID string          `json:"message_id"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	Context   json.RawMessage `json:"context,omitempty"`
}

// Transport is the room-capable event transport the gateway drives. The
// websocket hub implements it; tests substitute a recording fake.
type Transport interface {
	JoinRoom(sid, room string)
	LeaveRoom(sid, room string)
	EmitToConn(sid, event string, data interface{})
	EmitToRoom(room, event string, data interface{})
	Disconnect(sid string)
}

// ProfileResolver resolves a business profile to its outbound phone number
// id. Lookups are cached in the store for 24h, the resolver is only hit on
// cache misses.
type ProfileResolver interface {
	PhoneNumberID(ctx context.Context, businessProfileID string) (string, error)
}

type SessionPayload struct {
	Session string `json:"session"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type ConversationJoinedPayload struct {
	ConversationID        string `json:"conversation_id"`
	ExpirationTime        string `json:"expiration_time,omitempty"`
	IsConversationExpired bool   `json:"is_conversation_expired"`
	UnreadCount           int    `json:"unread_count"`
}

type ConversationLeftPayload struct {
	ConversationID string `json:"conversation_id"`
}

type BusinessGroupPayload struct {
	PhoneNumberID string `json:"phone_number_id"`
}

// MessageSummaryPayload goes to the business group room so every agent's
// inbox list can update without being inside the conversation.
type MessageSummaryPayload struct {
	ConversationID     string `json:"conversation_id"`
	LastMessageContent string `json:"last_message_content"`
	LastMessageTime    string `json:"last_message_time"`
	UnreadCount        int    `json:"unread_count"`
}

type ConversationMessage struct {
	WaMessageID    string          `json:"wa_message_id"`
	CreatedAt      string          `json:"created_at"`
	MessageType    string          `json:"message_type"`
	Content        json.RawMessage `json:"content"`
	Context        json.RawMessage `json:"context,omitempty"`
	IsFromContact  bool            `json:"is_from_contact"`
	MessageStatus  string          `json:"message_status"`
	ConversationID string          `json:"conversation_id"`
	RedisStreamID  string          `json:"redis_stream_id"`
}

type ConversationMessagePayload struct {
	Message        ConversationMessage `json:"message"`
	ConversationID string              `json:"conversation_id"`
}

type MessageStatusPayload struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	MessageID      string `json:"message_id"`
	Timestamp      string `json:"timestamp"`
}

type AssignmentSummaryPayload struct {
	ConversationID string `json:"conversation_id"`
}

type AssignmentPayload struct {
	ConversationID    string          `json:"conversation_id"`
	AssignedTo        string          `json:"assigned_to"`
	AssignmentMessage json.RawMessage `json:"assignment_message,omitempty"`
}

type ConversationStatusPayload struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

type UnreadStatusPayload struct {
	ConversationID    string `json:"conversation_id"`
	UnreadCount       int    `json:"unread_count"`
	LastReadMessageID string `json:"last_read_message_id"`
}
