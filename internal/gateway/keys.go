package gateway

// Store key namespaces. Shared with the team-inbox API workers that read the
// unread hash and expiration markers, so the formats are load-bearing.

func sessionKey(sid string) string {
	return "socket:session:" + sid
}

func userSessionKey(userID string) string {
	return "socket:user_session:" + userID
}

func conversationMemberKey(conversationID, sid string) string {
	return "conversation:" + conversationID + ":member:" + sid
}

func conversationMembersKey(conversationID string) string {
	return "conversation:" + conversationID + ":members"
}

func conversationUnreadKey(conversationID string) string {
	return "conversation:" + conversationID + ":unread"
}

func conversationExpirationKey(conversationID string) string {
	return "conversation:" + conversationID + ":expires_at"
}

func conversationStreamKey(conversationID string) string {
	return "conversation:" + conversationID + ":messages"
}

func businessGroupMemberKey(phoneNumberID, sid string) string {
	return "business_group:" + phoneNumberID + ":member:" + sid
}

func businessGroupMembersKey(phoneNumberID string) string {
	return "business_group:" + phoneNumberID + ":members"
}

func businessPhoneNumberKey(businessProfileID string) string {
	return "business_profile:" + businessProfileID + ":phone_number_id"
}
