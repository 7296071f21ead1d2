package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"team-inbox-backend/internal/gateway"
)

type emitCall struct {
	kind           string
	conversationID string
	phoneNumberID  string
	userID         string
	status         string
	messageID      string
	assignedTo     string
}

type fakeEmitter struct {
	calls []emitCall
	err   error
}

func (f *fakeEmitter) EmitReceivedMessage(ctx context.Context, message gateway.Message, phoneNumberID, conversationID string) error {
	f.calls = append(f.calls, emitCall{
		kind:           "message",
		phoneNumberID:  phoneNumberID,
		conversationID: conversationID,
		messageID:      message.MessageID,
	})
	return f.err
}

func (f *fakeEmitter) EmitMessageStatus(ctx context.Context, conversationID, status, messageID string) error {
	f.calls = append(f.calls, emitCall{
		kind:           "status",
		conversationID: conversationID,
		status:         status,
		messageID:      messageID,
	})
	return f.err
}

func (f *fakeEmitter) EmitConversationAssignment(ctx context.Context, userID, conversationID, assignedTo string, assignmentMessage json.RawMessage) error {
	f.calls = append(f.calls, emitCall{
		kind:           "assignment",
		userID:         userID,
		conversationID: conversationID,
		assignedTo:     assignedTo,
	})
	return f.err
}

func (f *fakeEmitter) EmitConversationStatus(ctx context.Context, userID, conversationID, status string) error {
	f.calls = append(f.calls, emitCall{
		kind:           "conversation_status",
		userID:         userID,
		conversationID: conversationID,
		status:         status,
	})
	return f.err
}

func (f *fakeEmitter) RefreshConversationExpiration(ctx context.Context, conversationID string) error {
	f.calls = append(f.calls, emitCall{
		kind:           "refresh",
		conversationID: conversationID,
	})
	return f.err
}

func (f *fakeEmitter) callsOfKind(kind string) []emitCall {
	out := make([]emitCall, 0)
	for _, call := range f.calls {
		if call.kind == kind {
			out = append(out, call)
		}
	}
	return out
}

func TestMessagesEmitAndRefreshWindow(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	body := `{
		"message": {"message_id": "wamid-1", "timestamp": "2026-03-01T12:00:00Z", "type": "text", "content": {"body": "hi"}},
		"phone_number_id": "phone-1",
		"conversation_id": "conv-1"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()

	if err := endpoints.Messages(rec, req); err != nil {
		t.Fatalf("messages: %v", err)
	}

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	messages := emitter.callsOfKind("message")
	if len(messages) != 1 || messages[0].conversationID != "conv-1" || messages[0].messageID != "wamid-1" {
		t.Fatalf("unexpected emit calls: %+v", emitter.calls)
	}
	refreshes := emitter.callsOfKind("refresh")
	if len(refreshes) != 1 || refreshes[0].conversationID != "conv-1" {
		t.Fatal("inbound message must restamp the 24h window")
	}
}

func TestMessagesRejectsBadPayload(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/messages", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	err := endpoints.Messages(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusBadRequest)
	}
	if len(emitter.calls) != 0 {
		t.Fatal("nothing should be emitted for a bad payload")
	}
}

func TestMessagesRejectsWrongMethod(t *testing.T) {
	endpoints := NewRealtimeEndpoints(&fakeEmitter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/realtime/v1/messages", nil)
	rec := httptest.NewRecorder()

	err := endpoints.Messages(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestMessagesMapsEmitterFailure(t *testing.T) {
	emitter := &fakeEmitter{err: errors.New("stream unavailable")}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	body := `{"message": {"message_id": "wamid-1"}, "phone_number_id": "phone-1", "conversation_id": "conv-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()

	err := endpoints.Messages(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusInternalServerError)
	}
}

func TestStatusesRequireConversationID(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/statuses", strings.NewReader(`{"status": "read"}`))
	rec := httptest.NewRecorder()

	err := endpoints.Statuses(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusBadRequest)
	}
}

func TestStatusesEmit(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	body := `{"conversation_id": "conv-1", "status": "delivered", "message_id": "wamid-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/statuses", strings.NewReader(body))
	rec := httptest.NewRecorder()

	if err := endpoints.Statuses(rec, req); err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	calls := emitter.callsOfKind("status")
	if len(calls) != 1 || calls[0].status != "delivered" || calls[0].messageID != "wamid-1" {
		t.Fatalf("unexpected emit calls: %+v", emitter.calls)
	}
}

func TestAssignmentsRequireIdentifiers(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/assignments", strings.NewReader(`{"assigned_to": "agent-2"}`))
	rec := httptest.NewRecorder()

	err := endpoints.Assignments(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusBadRequest)
	}
}

func TestAssignmentsEmit(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	body := `{"user_id": "user-1", "conversation_id": "conv-1", "assigned_to": "agent-2", "assignment_message": {"note": "vip"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/assignments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	if err := endpoints.Assignments(rec, req); err != nil {
		t.Fatalf("assignments: %v", err)
	}
	calls := emitter.callsOfKind("assignment")
	if len(calls) != 1 || calls[0].userID != "user-1" || calls[0].assignedTo != "agent-2" {
		t.Fatalf("unexpected emit calls: %+v", emitter.calls)
	}
}

func TestConversationStatusEmit(t *testing.T) {
	emitter := &fakeEmitter{}
	endpoints := NewRealtimeEndpoints(emitter, nil)

	body := `{"user_id": "user-1", "conversation_id": "conv-1", "status": "closed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/v1/conversation-status", strings.NewReader(body))
	rec := httptest.NewRecorder()

	if err := endpoints.ConversationStatus(rec, req); err != nil {
		t.Fatalf("conversation status: %v", err)
	}
	calls := emitter.callsOfKind("conversation_status")
	if len(calls) != 1 || calls[0].status != "closed" {
		t.Fatalf("unexpected emit calls: %+v", emitter.calls)
	}
}

func TestWebsocketWithoutHandler(t *testing.T) {
	endpoints := NewRealtimeEndpoints(&fakeEmitter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/realtime/v1/ws", nil)
	rec := httptest.NewRecorder()

	err := endpoints.Websocket(rec, req)
	httpErr := requireHTTPError(t, err)
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", httpErr.StatusCode, http.StatusServiceUnavailable)
	}
}

func requireHTTPError(t *testing.T, err error) *HTTPError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	return httpErr
}
