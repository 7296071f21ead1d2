package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"team-inbox-backend/internal/dto"
	"team-inbox-backend/internal/gateway"
	"team-inbox-backend/internal/websocket"
)

// Emitter is the slice of the realtime gateway the emit endpoints drive.
// Satisfied by *gateway.Gateway, replaced with a recording fake in tests.
type Emitter interface {
	EmitReceivedMessage(ctx context.Context, message gateway.Message, phoneNumberID, conversationID string) error
	EmitMessageStatus(ctx context.Context, conversationID, status, messageID string) error
	EmitConversationAssignment(ctx context.Context, userID, conversationID, assignedTo string, assignmentMessage json.RawMessage) error
	EmitConversationStatus(ctx context.Context, userID, conversationID, status string) error
	RefreshConversationExpiration(ctx context.Context, conversationID string) error
}

type RealtimeEndpoints interface {
	Websocket(http.ResponseWriter, *http.Request) error
	Messages(http.ResponseWriter, *http.Request) error
	Statuses(http.ResponseWriter, *http.Request) error
	Assignments(http.ResponseWriter, *http.Request) error
	ConversationStatus(http.ResponseWriter, *http.Request) error
}

type realtimeEndpoints struct {
	emitter Emitter
	handler *websocket.Handler
}

func NewRealtimeEndpoints(emitter Emitter, handler *websocket.Handler) RealtimeEndpoints {
	return &realtimeEndpoints{
		emitter: emitter,
		handler: handler,
	}
}

func (h *realtimeEndpoints) Websocket(w http.ResponseWriter, r *http.Request) error {
	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("websocket handler missing"),
		}
	}

	h.handler.Serve(w, r)
	return nil
}

func (h *realtimeEndpoints) Messages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleEmitMessage,
	})
}

func (h *realtimeEndpoints) Statuses(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleEmitStatus,
	})
}

func (h *realtimeEndpoints) Assignments(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleEmitAssignment,
	})
}

func (h *realtimeEndpoints) ConversationStatus(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleEmitConversationStatus,
	})
}

func (h *realtimeEndpoints) handleEmitMessage(w http.ResponseWriter, r *http.Request) error {
	var req dto.EmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode emit message request: %w", err),
		}
	}

	if err := h.emitter.EmitReceivedMessage(r.Context(), req.Message, req.PhoneNumberID, req.ConversationID); err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("emit received message: %w", err),
		}
	}

	// Every inbound customer message reopens the 24h reply window. Failure to
	// refresh the marker does not undo the emit, the next message retries it.
	if req.ConversationID != "" {
		if err := h.emitter.RefreshConversationExpiration(r.Context(), req.ConversationID); err != nil {
			return &HTTPError{
				StatusCode: http.StatusInternalServerError,
				Message:    "Internal server error",
				ErrorLog:   fmt.Errorf("refresh conversation expiration: %w", err),
			}
		}
	}

	return WriteJSON(w, http.StatusAccepted, dto.EmitAcceptedResponse{Accepted: true})
}

func (h *realtimeEndpoints) handleEmitStatus(w http.ResponseWriter, r *http.Request) error {
	var req dto.EmitStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode emit status request: %w", err),
		}
	}

	if req.ConversationID == "" {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "conversation_id is required",
			ErrorLog:   fmt.Errorf("emit status missing conversation id"),
		}
	}

	if err := h.emitter.EmitMessageStatus(r.Context(), req.ConversationID, req.Status, req.MessageID); err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("emit message status: %w", err),
		}
	}

	return WriteJSON(w, http.StatusAccepted, dto.EmitAcceptedResponse{Accepted: true})
}

func (h *realtimeEndpoints) handleEmitAssignment(w http.ResponseWriter, r *http.Request) error {
	var req dto.EmitAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode emit assignment request: %w", err),
		}
	}

	if req.UserID == "" || req.ConversationID == "" {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "user_id and conversation_id are required",
			ErrorLog:   fmt.Errorf("emit assignment missing identifiers"),
		}
	}

	if err := h.emitter.EmitConversationAssignment(r.Context(), req.UserID, req.ConversationID, req.AssignedTo, req.AssignmentMessage); err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("emit conversation assignment: %w", err),
		}
	}

	return WriteJSON(w, http.StatusAccepted, dto.EmitAcceptedResponse{Accepted: true})
}

func (h *realtimeEndpoints) handleEmitConversationStatus(w http.ResponseWriter, r *http.Request) error {
	var req dto.EmitConversationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode emit conversation status request: %w", err),
		}
	}

	if req.UserID == "" {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "user_id is required",
			ErrorLog:   fmt.Errorf("emit conversation status missing user id"),
		}
	}

	if err := h.emitter.EmitConversationStatus(r.Context(), req.UserID, req.ConversationID, req.Status); err != nil {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("emit conversation status: %w", err),
		}
	}

	return WriteJSON(w, http.StatusAccepted, dto.EmitAcceptedResponse{Accepted: true})
}
