package middleware

import (
	"net/http"
	"time"

	internaljwt "team-inbox-backend/internal/jwt"
)

// ValidateJWT guards the emit endpoints used by the webhook and assignment
// workers: callers hold the same HMAC-signed tokens the socket handshake
// accepts.
func ValidateJWT() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")

			if len(tokenString) <= len("Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			tokenString = tokenString[len("Bearer "):]

			claims, err := internaljwt.ParseToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if exp, ok := claims["exp"].(float64); ok {
				if time.Now().Unix() > int64(exp) {
					http.Error(w, "Token expired", http.StatusUnauthorized)
					return
				}
			}

			next(w, r)
		}
	}
}

var ValidateUserJWT = ValidateJWT()
