package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrTokenInvalid covers every verification failure on a presented token:
// bad signature, malformed, or expired. Callers treat all of these as
// "log in again".
var ErrTokenInvalid = errors.New("token invalid or expired")

func CreateToken(claims SocketClaims, validUntil int64) (string, error) {
	if validUntil == 0 {
		validUntil = time.Now().Add(time.Minute * 15).Unix()
	}

	mapClaims := jwt.MapClaims{
		"userId":              claims.UserID,
		"business_profile_id": claims.BusinessProfileID,
		"exp":                 validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(userSecret))
}

func ParseToken(tokenString string) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("token string is empty")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(userSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	return claims, nil
}

// VerifySocketToken validates a handshake token and extracts the claims the
// gateway requires. Verification failures come back as ErrTokenInvalid; a
// valid token missing the required claims is a distinct error.
func VerifySocketToken(tokenString string) (SocketClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return SocketClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return SocketClaims{}, ErrTokenInvalid
		}
	}

	out := SocketClaims{}
	if v, ok := claims["userId"].(string); ok {
		out.UserID = v
	}
	if v, ok := claims["business_profile_id"].(string); ok {
		out.BusinessProfileID = v
	}
	if out.UserID == "" || out.BusinessProfileID == "" {
		return SocketClaims{}, fmt.Errorf("token claims missing userId or business_profile_id")
	}

	return out, nil
}
