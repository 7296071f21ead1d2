package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const streamMaxLen = 1000

// EmitReceivedMessage fans an inbound customer message out to the rooms that
// care about it. The message is appended to the conversation's capped stream
// first, then the unread counter is bumped only when nobody is viewing the
// room, and finally the business group gets a summary while the conversation
// room gets the full message. Missing phone number or conversation id makes
// the whole call a no-op.
func (g *Gateway) EmitReceivedMessage(ctx context.Context, message Message, phoneNumberID, conversationID string) error {
	if phoneNumberID == "" {
		log.Printf("gateway: emit received message: no phone number id, skipping")
		return nil
	}
	if conversationID == "" {
		log.Printf("gateway: emit received message: no conversation id, skipping")
		return nil
	}

	streamFields := map[string]string{
		"wa_message_id":   message.MessageID,
		"created_at":      message.Timestamp,
		"message_type":    message.Type,
		"content":         string(message.Content),
		"context":         string(message.Context),
		"is_from_contact": "true",
		"message_status":  "received",
		"conversation_id": conversationID,
	}
	streamID, err := g.store.XAdd(ctx, conversationStreamKey(conversationID), streamMaxLen, streamFields)
	if err != nil {
		return fmt.Errorf("append message to stream: %w", err)
	}

	unreadKey := conversationUnreadKey(conversationID)

	// Durable set cardinality, not the local directory: another instance may
	// hold the viewer.
	membersCount, err := g.store.SCard(ctx, conversationMembersKey(conversationID))
	if err != nil {
		return fmt.Errorf("count conversation members: %w", err)
	}

	if membersCount <= 0 {
		if _, err := g.store.HIncrBy(ctx, unreadKey, "unread_count", 1); err != nil {
			return fmt.Errorf("increment unread count: %w", err)
		}
		if err := g.store.HSet(ctx, unreadKey, map[string]string{"last_read_message_id": unreadSentinel}); err != nil {
			return fmt.Errorf("reset last read marker: %w", err)
		}
	}

	unread, err := g.store.HGetAll(ctx, unreadKey)
	if err != nil {
		return fmt.Errorf("read unread status: %w", err)
	}

	g.emitToRoom(phoneNumberID, EventMessageReceived, MessageSummaryPayload{
		ConversationID:     conversationID,
		LastMessageContent: lastMessagePreview(message),
		LastMessageTime:    message.Timestamp,
		UnreadCount:        parseCount(unread["unread_count"]),
	})

	g.emitToRoom(conversationID, EventConversationMessageReceived, ConversationMessagePayload{
		Message: ConversationMessage{
			WaMessageID:    message.MessageID,
			CreatedAt:      message.Timestamp,
			MessageType:    message.Type,
			Content:        message.Content,
			Context:        message.Context,
			IsFromContact:  true,
			MessageStatus:  "delivered",
			ConversationID: conversationID,
			RedisStreamID:  streamID,
		},
		ConversationID: conversationID,
	})

	log.Printf("gateway: message %s emitted to business group %s, conversation %s", message.MessageID, phoneNumberID, conversationID)
	return nil
}

// EmitMessageStatus pushes a delivery-status change to the conversation room
// only. No counter side effects.
func (g *Gateway) EmitMessageStatus(ctx context.Context, conversationID, status, messageID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id required")
	}
	g.emitToRoom(conversationID, EventMessageStatus, MessageStatusPayload{
		ConversationID: conversationID,
		Status:         status,
		MessageID:      messageID,
		Timestamp:      g.now().UTC().Format(time.RFC3339),
	})
	return nil
}

// EmitConversationAssignment notifies the assignee's business group and the
// conversation room about an assignment. Best-effort realtime push: when the
// target user has no active connection the emission is skipped entirely, the
// assignment itself is already durably recorded by the caller.
func (g *Gateway) EmitConversationAssignment(ctx context.Context, userID, conversationID, assignedTo string, assignmentMessage json.RawMessage) error {
	phoneNumberID, ok := g.targetPhoneNumber(ctx, userID)
	if !ok {
		return nil
	}

	g.emitToRoom(phoneNumberID, EventConversationAssignmentBusiness, AssignmentSummaryPayload{
		ConversationID: conversationID,
	})
	g.emitToRoom(conversationID, EventConversationAssignmentChat, AssignmentPayload{
		ConversationID:    conversationID,
		AssignedTo:        assignedTo,
		AssignmentMessage: assignmentMessage,
	})

	log.Printf("gateway: conversation %s assigned to %s", conversationID, assignedTo)
	return nil
}

// EmitConversationStatus mirrors EmitConversationAssignment for open/closed
// status changes.
func (g *Gateway) EmitConversationStatus(ctx context.Context, userID, conversationID, status string) error {
	phoneNumberID, ok := g.targetPhoneNumber(ctx, userID)
	if !ok {
		return nil
	}

	if phoneNumberID != "" {
		g.emitToRoom(phoneNumberID, EventConversationStatusBusinessGroup, ConversationStatusPayload{
			ConversationID: conversationID,
			Status:         status,
		})
	}
	if conversationID != "" {
		g.emitToRoom(conversationID, EventConversationStatusChat, ConversationStatusPayload{
			ConversationID: conversationID,
			Status:         status,
		})
		log.Printf("gateway: conversation %s status updated to %s", conversationID, status)
	}
	return nil
}

// targetPhoneNumber resolves a user id to the phone-number room of their
// currently connected session, or reports that the user is offline.
func (g *Gateway) targetPhoneNumber(ctx context.Context, userID string) (string, bool) {
	sid, found, err := g.store.Get(ctx, userSessionKey(userID))
	if err != nil || !found || sid == "" {
		log.Printf("gateway: no connection for user %s, skipping emit", userID)
		return "", false
	}
	if active, err := g.sidActive(ctx, sid); err != nil || !active {
		log.Printf("gateway: sid %s not active for user %s, skipping emit", sid, userID)
		return "", false
	}

	session, ok := g.sessionData(ctx, sid)
	if !ok || session.BusinessProfileID == "" {
		return "", false
	}
	phoneNumberID, err := g.phoneNumberID(ctx, session.BusinessProfileID)
	if err != nil {
		log.Printf("gateway: resolve phone number for user %s: %v", userID, err)
		return "", false
	}
	return phoneNumberID, true
}

func (g *Gateway) emitToRoom(room, event string, data interface{}) {
	g.transport.EmitToRoom(room, event, data)
	eventsEmitted.WithLabelValues(event).Inc()
}

// lastMessagePreview derives the short inbox-list preview from a normalized
// message: the text body when there is one, otherwise the message type as a
// tag like "[image]".
func lastMessagePreview(message Message) string {
	if message.Type == "text" {
		var content struct {
			Body string `json:"body"`
		}
		if err := json.Unmarshal(message.Content, &content); err == nil && content.Body != "" {
			return content.Body
		}
	}
	if message.Type == "" {
		return ""
	}
	return "[" + message.Type + "]"
}
