package jwt

// SocketClaims carries the decoded fields the realtime gateway needs from a
// verified handshake token. Empty strings mean the claim was not present.
type SocketClaims struct {
	UserID            string
	BusinessProfileID string
}
