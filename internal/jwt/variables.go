package jwt

import (
	"team-inbox-backend/internal/env"
)

var userSecret = env.Get(env.UserSecretKey)

// SetSecret overrides the signing secret, used by tests and local tooling.
func SetSecret(secret string) {
	if secret == "" {
		return
	}
	userSecret = secret
}
