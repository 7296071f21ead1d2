package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	internaljwt "team-inbox-backend/internal/jwt"
)

const (
	sessionTTL                = time.Hour
	memberMarkerTTL           = time.Hour
	profileCacheTTL           = 24 * time.Hour
	conversationExpirationTTL = 24 * time.Hour

	// Sentinel last-read marker, matches the stream-id zero value so the next
	// genuine read recomputes from a known baseline.
	unreadSentinel = "0-0"
)

// Gateway is the realtime presence and conversation-room state machine. One
// instance per process; shared state lives in the Store, same-process state
// in the Directory.
type Gateway struct {
	store     Store
	transport Transport
	profiles  ProfileResolver
	dir       *Directory

	verifyToken func(string) (internaljwt.SocketClaims, error)
	now         func() time.Time
}

func New(store Store, transport Transport, profiles ProfileResolver) *Gateway {
	return &Gateway{
		store:       store,
		transport:   transport,
		profiles:    profiles,
		dir:         NewDirectory(),
		verifyToken: internaljwt.VerifySocketToken,
		now:         time.Now,
	}
}

// Directory exposes the presence directory for same-process consumers such
// as the websocket hub's room metrics.
func (g *Gateway) Directory() *Directory {
	return g.dir
}

// Connect runs the handshake flow for a new transport connection. Any
// failure force-disconnects the socket and is never propagated as a crash;
// the returned error is for the transport layer's log only.
func (g *Gateway) Connect(ctx context.Context, sid, token string) error {
	if token == "" {
		log.Printf("gateway: no token provided for sid %s, disconnecting", sid)
		g.transport.Disconnect(sid)
		return nil
	}

	claims, err := g.verifyToken(token)
	if err != nil {
		if errors.Is(err, internaljwt.ErrTokenInvalid) {
			g.transport.EmitToConn(sid, EventTokenExpired, ErrorPayload{Message: "Token expired, please login again."})
			g.transport.Disconnect(sid)
			return nil
		}
		log.Printf("gateway: connect %s: %v", sid, err)
		g.transport.Disconnect(sid)
		return err
	}

	if err := g.commitSession(ctx, sid, claims); err != nil {
		log.Printf("gateway: connect %s: %v", sid, err)
		g.transport.Disconnect(sid)
		return err
	}

	g.transport.EmitToConn(sid, EventSession, SessionPayload{Session: sid})
	log.Printf("gateway: user %s connected with session %s", claims.UserID, sid)
	return nil
}

// commitSession enforces the single-session-per-user invariant, then writes
// the durable session record and the user pointer.
func (g *Gateway) commitSession(ctx context.Context, sid string, claims internaljwt.SocketClaims) error {
	userKey := userSessionKey(claims.UserID)

	oldSid, found, err := g.store.Get(ctx, userKey)
	if err != nil {
		return fmt.Errorf("lookup previous session: %w", err)
	}
	if found && oldSid != "" && oldSid != sid {
		active, err := g.sidActive(ctx, oldSid)
		if err == nil && active {
			log.Printf("gateway: kicking previous socket %s for user %s", oldSid, claims.UserID)
			evictions.Inc()
			g.transport.Disconnect(oldSid)
		} else {
			// Stale pointer from a crash, clean it up instead of kicking.
			if err := g.store.Del(ctx, sessionKey(oldSid), userKey); err != nil {
				log.Printf("gateway: cleanup stale session %s: %v", oldSid, err)
			}
		}
	}

	session := Session{
		UserID:            claims.UserID,
		BusinessProfileID: claims.BusinessProfileID,
		ConnectedAt:       g.now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := g.store.Set(ctx, sessionKey(sid), string(raw), sessionTTL); err != nil {
		return fmt.Errorf("store session record: %w", err)
	}
	if err := g.store.Set(ctx, userKey, sid, sessionTTL); err != nil {
		return fmt.Errorf("store user session pointer: %w", err)
	}

	g.dir.SetSession(sid, session)
	connections.Inc()
	return nil
}

// Disconnect tears a connection down: leaves every room the sid held
// (best-effort, one room's failure does not stop the others) and deletes the
// durable session keys. Safe to call twice, the session-record check makes
// the second call a no-op.
func (g *Gateway) Disconnect(ctx context.Context, sid string) error {
	active, err := g.sidActive(ctx, sid)
	if err != nil {
		log.Printf("gateway: disconnect %s: active check: %v", sid, err)
	}
	if !active {
		log.Printf("gateway: skip disconnect, sid %s is not active", sid)
		return nil
	}

	session, _ := g.sessionData(ctx, sid)

	for _, conversationID := range g.dir.Conversations(sid) {
		if err := g.leaveConversation(ctx, sid, conversationID); err != nil {
			log.Printf("gateway: disconnect %s: leave conversation %s: %v", sid, conversationID, err)
		}
	}

	if phone, ok := g.dir.BusinessGroup(sid); ok {
		if err := g.leaveBusinessGroup(ctx, sid, phone); err != nil {
			log.Printf("gateway: disconnect %s: leave business group %s: %v", sid, phone, err)
		}
	}

	if session.UserID != "" {
		if err := g.store.Del(ctx, sessionKey(sid)); err != nil {
			log.Printf("gateway: disconnect %s: delete session record: %v", sid, err)
		}
		// Only drop the user pointer if it still references this sid, a
		// reconnect may already have overwritten it.
		userKey := userSessionKey(session.UserID)
		if current, found, err := g.store.Get(ctx, userKey); err == nil && found && current == sid {
			if err := g.store.Del(ctx, userKey); err != nil {
				log.Printf("gateway: disconnect %s: delete user pointer: %v", sid, err)
			}
		}
	}

	g.dir.DropSession(sid)
	connections.Dec()
	log.Printf("gateway: client %s disconnected", sid)
	return nil
}

// JoinConversation adds the sid to a conversation room and reports the
// room's expiration and unread state. Opening the conversation counts as
// reading it: the unread counter is reset, the acknowledgement carries the
// pre-reset value.
func (g *Gateway) JoinConversation(ctx context.Context, sid, conversationID string) error {
	active, _ := g.sidActive(ctx, sid)
	if !active {
		log.Printf("gateway: skip join, sid %s not active", sid)
		return nil
	}
	if conversationID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "conversation_id required"})
		return nil
	}

	session, ok := g.sessionData(ctx, sid)
	if !ok || session.UserID == "" || session.BusinessProfileID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "Invalid session"})
		return nil
	}

	if err := g.joinConversation(ctx, sid, conversationID, session.UserID); err != nil {
		log.Printf("gateway: join conversation %s for sid %s: %v", conversationID, sid, err)
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "Failed to join conversation"})
		return err
	}
	log.Printf("gateway: user %s joined conversation %s", session.UserID, conversationID)
	return nil
}

func (g *Gateway) joinConversation(ctx context.Context, sid, conversationID, userID string) error {
	g.transport.JoinRoom(sid, conversationID)
	g.dir.AddConversation(sid, conversationID)

	marker, err := json.Marshal(map[string]string{
		"user_id":   userID,
		"joined_at": g.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal member marker: %w", err)
	}
	if err := g.store.Set(ctx, conversationMemberKey(conversationID, sid), string(marker), memberMarkerTTL); err != nil {
		return fmt.Errorf("store member marker: %w", err)
	}
	if err := g.store.SAdd(ctx, conversationMembersKey(conversationID), sid); err != nil {
		return fmt.Errorf("add to member set: %w", err)
	}

	expirationTime, expired := g.conversationExpiration(ctx, conversationID)

	unreadKey := conversationUnreadKey(conversationID)
	unread, err := g.store.HGetAll(ctx, unreadKey)
	if err != nil {
		return fmt.Errorf("read unread status: %w", err)
	}
	unreadCount := parseCount(unread["unread_count"])

	if err := g.store.HSet(ctx, unreadKey, map[string]string{
		"unread_count":         "0",
		"last_read_message_id": unreadSentinel,
	}); err != nil {
		return fmt.Errorf("reset unread status: %w", err)
	}

	g.transport.EmitToConn(sid, EventConversationJoined, ConversationJoinedPayload{
		ConversationID:        conversationID,
		ExpirationTime:        expirationTime,
		IsConversationExpired: expired,
		UnreadCount:           unreadCount,
	})
	return nil
}

// LeaveConversation removes the sid from a conversation room. Leaving a room
// the sid never joined is a safe no-op.
func (g *Gateway) LeaveConversation(ctx context.Context, sid, conversationID string) error {
	active, _ := g.sidActive(ctx, sid)
	if !active {
		log.Printf("gateway: skip leave, sid %s not active", sid)
		return nil
	}
	if conversationID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "conversation_id required"})
		return nil
	}

	if err := g.leaveConversation(ctx, sid, conversationID); err != nil {
		log.Printf("gateway: leave conversation %s for sid %s: %v", conversationID, sid, err)
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "Failed to leave conversation"})
		return err
	}
	return nil
}

func (g *Gateway) leaveConversation(ctx context.Context, sid, conversationID string) error {
	g.transport.LeaveRoom(sid, conversationID)
	g.dir.RemoveConversation(sid, conversationID)

	if err := g.store.Del(ctx, conversationMemberKey(conversationID, sid)); err != nil {
		return fmt.Errorf("delete member marker: %w", err)
	}

	membersKey := conversationMembersKey(conversationID)
	if err := g.store.SRem(ctx, membersKey, sid); err != nil {
		return fmt.Errorf("remove from member set: %w", err)
	}
	if n, err := g.store.SCard(ctx, membersKey); err == nil && n == 0 {
		if err := g.store.Del(ctx, membersKey); err != nil {
			return fmt.Errorf("delete empty member set: %w", err)
		}
	}

	g.transport.EmitToConn(sid, EventConversationLeft, ConversationLeftPayload{ConversationID: conversationID})
	log.Printf("gateway: session %s left conversation %s", sid, conversationID)
	return nil
}

// JoinBusinessGroup puts the sid into its tenant's business-group room,
// keyed by the tenant's outbound phone number id.
func (g *Gateway) JoinBusinessGroup(ctx context.Context, sid string) error {
	active, _ := g.sidActive(ctx, sid)
	if !active {
		log.Printf("gateway: skip join, sid %s not active for business group", sid)
		return nil
	}

	session, ok := g.sessionData(ctx, sid)
	if !ok || session.BusinessProfileID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "Missing business profile ID"})
		return nil
	}

	phoneNumberID, err := g.phoneNumberID(ctx, session.BusinessProfileID)
	if err != nil {
		log.Printf("gateway: join business group for sid %s: %v", sid, err)
		return err
	}

	g.transport.JoinRoom(sid, phoneNumberID)
	g.dir.SetBusinessGroup(sid, phoneNumberID)

	marker, err := json.Marshal(map[string]string{
		"user_id":   session.UserID,
		"joined_at": g.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal member marker: %w", err)
	}
	if err := g.store.Set(ctx, businessGroupMemberKey(phoneNumberID, sid), string(marker), memberMarkerTTL); err != nil {
		return fmt.Errorf("store member marker: %w", err)
	}
	if err := g.store.SAdd(ctx, businessGroupMembersKey(phoneNumberID), sid); err != nil {
		return fmt.Errorf("add to member set: %w", err)
	}

	g.transport.EmitToConn(sid, EventBusinessGroupJoined, BusinessGroupPayload{PhoneNumberID: phoneNumberID})
	log.Printf("gateway: user %s joined business group %s", session.UserID, phoneNumberID)
	return nil
}

// LeaveBusinessGroup is the explicit counterpart, also invoked from the
// disconnect sweep.
func (g *Gateway) LeaveBusinessGroup(ctx context.Context, sid string) error {
	active, _ := g.sidActive(ctx, sid)
	if !active {
		log.Printf("gateway: skip leave, sid %s not active for business group", sid)
		return nil
	}

	phoneNumberID, ok := g.dir.BusinessGroup(sid)
	if !ok {
		// Not joined on this instance; resolve from the session so an
		// explicit leave after a process restart still cleans the mirror.
		session, found := g.sessionData(ctx, sid)
		if !found || session.BusinessProfileID == "" {
			return nil
		}
		var err error
		phoneNumberID, err = g.phoneNumberID(ctx, session.BusinessProfileID)
		if err != nil {
			log.Printf("gateway: leave business group for sid %s: %v", sid, err)
			return err
		}
	}

	if err := g.leaveBusinessGroup(ctx, sid, phoneNumberID); err != nil {
		log.Printf("gateway: leave business group %s for sid %s: %v", phoneNumberID, sid, err)
		return err
	}
	return nil
}

func (g *Gateway) leaveBusinessGroup(ctx context.Context, sid, phoneNumberID string) error {
	g.transport.LeaveRoom(sid, phoneNumberID)
	g.dir.ClearBusinessGroup(sid)

	if err := g.store.Del(ctx, businessGroupMemberKey(phoneNumberID, sid)); err != nil {
		return fmt.Errorf("delete member marker: %w", err)
	}

	membersKey := businessGroupMembersKey(phoneNumberID)
	if err := g.store.SRem(ctx, membersKey, sid); err != nil {
		return fmt.Errorf("remove from member set: %w", err)
	}
	if n, err := g.store.SCard(ctx, membersKey); err == nil && n == 0 {
		if err := g.store.Del(ctx, membersKey); err != nil {
			return fmt.Errorf("delete empty member set: %w", err)
		}
	}

	g.transport.EmitToConn(sid, EventBusinessGroupLeft, BusinessGroupPayload{PhoneNumberID: phoneNumberID})
	log.Printf("gateway: session %s left business group %s", sid, phoneNumberID)
	return nil
}

// MarkAsRead zeroes the conversation's unread counter, stores the provided
// last-read marker verbatim and tells the whole business group so every
// agent's inbox reflects the read state.
func (g *Gateway) MarkAsRead(ctx context.Context, sid, conversationID, lastReadMessageID string) error {
	if conversationID == "" || lastReadMessageID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "conversation_id and last_read_message_id required"})
		return nil
	}

	session, ok := g.sessionData(ctx, sid)
	if !ok || session.BusinessProfileID == "" {
		g.transport.EmitToConn(sid, EventError, ErrorPayload{Message: "Invalid session"})
		return nil
	}

	phoneNumberID, err := g.phoneNumberID(ctx, session.BusinessProfileID)
	if err != nil {
		log.Printf("gateway: mark as read for sid %s: %v", sid, err)
		return err
	}

	if err := g.store.HSet(ctx, conversationUnreadKey(conversationID), map[string]string{
		"unread_count":         "0",
		"last_read_message_id": lastReadMessageID,
	}); err != nil {
		log.Printf("gateway: mark as read %s: %v", conversationID, err)
		return err
	}

	g.transport.EmitToRoom(phoneNumberID, EventUnreadStatusUpdated, UnreadStatusPayload{
		ConversationID:    conversationID,
		UnreadCount:       0,
		LastReadMessageID: lastReadMessageID,
	})
	log.Printf("gateway: user %s marked conversation %s as read", session.UserID, conversationID)
	return nil
}

// RefreshConversationExpiration restamps the 24h messaging-window marker,
// called after every inbound customer message.
func (g *Gateway) RefreshConversationExpiration(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id required")
	}
	expiresAt := g.now().UTC().Add(conversationExpirationTTL).Format(time.RFC3339)
	return g.store.Set(ctx, conversationExpirationKey(conversationID), expiresAt, conversationExpirationTTL)
}

// conversationExpiration reads the expiration marker. No marker means the
// messaging window is closed; a marker in the future means open until then.
func (g *Gateway) conversationExpiration(ctx context.Context, conversationID string) (string, bool) {
	raw, found, err := g.store.Get(ctx, conversationExpirationKey(conversationID))
	if err != nil {
		log.Printf("gateway: read expiration for %s: %v", conversationID, err)
		return "", true
	}
	if !found {
		return "", true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		log.Printf("gateway: bad expiration marker for %s: %q", conversationID, raw)
		return "", true
	}
	return raw, !t.After(g.now())
}

// phoneNumberID resolves a business profile to its phone number id through
// the 24h store cache, falling back to the profile service.
func (g *Gateway) phoneNumberID(ctx context.Context, businessProfileID string) (string, error) {
	key := businessPhoneNumberKey(businessProfileID)
	if cached, found, err := g.store.Get(ctx, key); err == nil && found && cached != "" {
		return cached, nil
	}

	phoneNumberID, err := g.profiles.PhoneNumberID(ctx, businessProfileID)
	if err != nil {
		return "", fmt.Errorf("resolve business profile %s: %w", businessProfileID, err)
	}
	if err := g.store.Set(ctx, key, phoneNumberID, profileCacheTTL); err != nil {
		log.Printf("gateway: cache phone number id for %s: %v", businessProfileID, err)
	}
	return phoneNumberID, nil
}

// sidActive reports whether the durable session record for sid still exists.
func (g *Gateway) sidActive(ctx context.Context, sid string) (bool, error) {
	exists, err := g.store.Exists(ctx, sessionKey(sid))
	if err != nil {
		return false, err
	}
	return exists, nil
}

// sessionData is the two-tier session lookup: the durable record is
// authoritative, the directory copy is a same-process fallback consulted
// second.
func (g *Gateway) sessionData(ctx context.Context, sid string) (Session, bool) {
	raw, found, err := g.store.Get(ctx, sessionKey(sid))
	if err == nil && found {
		var session Session
		if err := json.Unmarshal([]byte(raw), &session); err == nil {
			return session, true
		}
		log.Printf("gateway: corrupt session record for sid %s", sid)
	} else if err != nil {
		log.Printf("gateway: session lookup for sid %s: %v", sid, err)
	}

	return g.dir.Session(sid)
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
