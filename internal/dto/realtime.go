package dto

import (
	"encoding/json"

	"team-inbox-backend/internal/gateway"
)

type EmitMessageRequest struct {
	Message        gateway.Message `json:"message"`
	PhoneNumberID  string          `json:"phone_number_id"`
	ConversationID string          `json:"conversation_id"`
}

type EmitStatusRequest struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	MessageID      string `json:"message_id"`
}

type EmitAssignmentRequest struct {
	UserID            string          `json:"user_id"`
	ConversationID    string          `json:"conversation_id"`
	AssignedTo        string          `json:"assigned_to"`
	AssignmentMessage json.RawMessage `json:"assignment_message,omitempty"`
}

type EmitConversationStatusRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

type EmitAcceptedResponse struct {
	Accepted bool `json:"accepted"`
}
