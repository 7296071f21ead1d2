package gateway

import "sync"

// Directory is the in-memory presence index for one gateway instance:
// which conversations a sid has joined, which sids are viewing a
// conversation, and which business group a sid belongs to. The durable
// store holds the authoritative mirror; these maps only serve same-process
// lookups and the disconnect sweep. One Directory per gateway instance,
// passed in explicitly.
type Directory struct {
	mu sync.Mutex

	sidConversations  map[string]map[string]struct{}
	conversationSids  map[string]map[string]struct{}
	sidBusinessGroup  map[string]string
	businessGroupSids map[string]map[string]struct{}

	sessions map[string]Session
}

func NewDirectory() *Directory {
	return &Directory{
		sidConversations:  make(map[string]map[string]struct{}),
		conversationSids:  make(map[string]map[string]struct{}),
		sidBusinessGroup:  make(map[string]string),
		businessGroupSids: make(map[string]map[string]struct{}),
		sessions:          make(map[string]Session),
	}
}

func (d *Directory) AddConversation(sid, conversationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sidConversations[sid] == nil {
		d.sidConversations[sid] = make(map[string]struct{})
	}
	d.sidConversations[sid][conversationID] = struct{}{}
	if d.conversationSids[conversationID] == nil {
		d.conversationSids[conversationID] = make(map[string]struct{})
	}
	d.conversationSids[conversationID][sid] = struct{}{}
}

// RemoveConversation drops the membership both ways and garbage-collects
// emptied sets. Removing a membership that does not exist is a no-op.
func (d *Directory) RemoveConversation(sid, conversationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if set, ok := d.sidConversations[sid]; ok {
		delete(set, conversationID)
		if len(set) == 0 {
			delete(d.sidConversations, sid)
		}
	}
	if set, ok := d.conversationSids[conversationID]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(d.conversationSids, conversationID)
		}
	}
}

// Conversations returns a copy of the conversation ids held by sid, safe to
// iterate while memberships change underneath.
func (d *Directory) Conversations(sid string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := d.sidConversations[sid]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (d *Directory) ConversationMembers(conversationID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conversationSids[conversationID])
}

func (d *Directory) SetBusinessGroup(sid, phoneNumberID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sidBusinessGroup[sid] = phoneNumberID
	if d.businessGroupSids[phoneNumberID] == nil {
		d.businessGroupSids[phoneNumberID] = make(map[string]struct{})
	}
	d.businessGroupSids[phoneNumberID][sid] = struct{}{}
}

func (d *Directory) BusinessGroup(sid string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	phone, ok := d.sidBusinessGroup[sid]
	return phone, ok
}

func (d *Directory) ClearBusinessGroup(sid string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	phone, ok := d.sidBusinessGroup[sid]
	if !ok {
		return "", false
	}
	delete(d.sidBusinessGroup, sid)
	if set, ok := d.businessGroupSids[phone]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(d.businessGroupSids, phone)
		}
	}
	return phone, true
}

func (d *Directory) BusinessGroupMembers(phoneNumberID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.businessGroupSids[phoneNumberID])
}

// SetSession caches the decoded session claims locally. The durable record
// stays authoritative; this copy is only consulted when the store lookup
// misses or fails.
func (d *Directory) SetSession(sid string, session Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[sid] = session
}

func (d *Directory) Session(sid string) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessions[sid]
	return session, ok
}

func (d *Directory) DropSession(sid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, sid)
}
