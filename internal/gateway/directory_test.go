package gateway

import (
	"sort"
	"testing"
)

func TestDirectoryConversationMembership(t *testing.T) {
	d := NewDirectory()

	d.AddConversation("sid-1", "conv-1")
	d.AddConversation("sid-1", "conv-2")
	d.AddConversation("sid-2", "conv-1")

	got := d.Conversations("sid-1")
	sort.Strings(got)
	if len(got) != 2 || got[0] != "conv-1" || got[1] != "conv-2" {
		t.Fatalf("conversations for sid-1 = %v", got)
	}
	if d.ConversationMembers("conv-1") != 2 {
		t.Fatalf("conv-1 members = %d, want 2", d.ConversationMembers("conv-1"))
	}

	d.RemoveConversation("sid-1", "conv-1")
	if d.ConversationMembers("conv-1") != 1 {
		t.Fatalf("conv-1 members after remove = %d, want 1", d.ConversationMembers("conv-1"))
	}

	d.RemoveConversation("sid-2", "conv-1")
	if d.ConversationMembers("conv-1") != 0 {
		t.Fatal("emptied conversation should report zero members")
	}

	// Removing a membership that never existed must not panic or corrupt.
	d.RemoveConversation("sid-9", "conv-9")
}

func TestDirectoryBusinessGroup(t *testing.T) {
	d := NewDirectory()

	d.SetBusinessGroup("sid-1", "phone-1")
	d.SetBusinessGroup("sid-2", "phone-1")

	if phone, ok := d.BusinessGroup("sid-1"); !ok || phone != "phone-1" {
		t.Fatalf("business group for sid-1 = %q, %v", phone, ok)
	}
	if d.BusinessGroupMembers("phone-1") != 2 {
		t.Fatalf("phone-1 members = %d, want 2", d.BusinessGroupMembers("phone-1"))
	}

	phone, ok := d.ClearBusinessGroup("sid-1")
	if !ok || phone != "phone-1" {
		t.Fatalf("clear returned %q, %v", phone, ok)
	}
	if _, ok := d.BusinessGroup("sid-1"); ok {
		t.Fatal("sid-1 should no longer belong to a group")
	}
	if d.BusinessGroupMembers("phone-1") != 1 {
		t.Fatalf("phone-1 members after clear = %d, want 1", d.BusinessGroupMembers("phone-1"))
	}

	if _, ok := d.ClearBusinessGroup("sid-1"); ok {
		t.Fatal("clearing twice should report not found")
	}
}

func TestDirectorySessionCache(t *testing.T) {
	d := NewDirectory()

	d.SetSession("sid-1", Session{UserID: "user-1", BusinessProfileID: "bp-1"})

	session, ok := d.Session("sid-1")
	if !ok || session.UserID != "user-1" {
		t.Fatalf("session lookup = %+v, %v", session, ok)
	}

	d.DropSession("sid-1")
	if _, ok := d.Session("sid-1"); ok {
		t.Fatal("dropped session should be gone")
	}
}
