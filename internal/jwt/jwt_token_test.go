package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt"
)

func TestVerifySocketTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := CreateToken(SocketClaims{
		UserID:            "user-1",
		BusinessProfileID: "bp-1",
	}, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	claims, err := VerifySocketToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.UserID != "user-1" || claims.BusinessProfileID != "bp-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifySocketTokenRejectsExpired(t *testing.T) {
	SetSecret("test-secret")

	token, err := CreateToken(SocketClaims{
		UserID:            "user-1",
		BusinessProfileID: "bp-1",
	}, time.Now().Add(-time.Hour).Unix())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	_, err = VerifySocketToken(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifySocketTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("test-secret")
	token, err := CreateToken(SocketClaims{
		UserID:            "user-1",
		BusinessProfileID: "bp-1",
	}, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	SetSecret("other-secret")
	if _, err := VerifySocketToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifySocketTokenRequiresGatewayClaims(t *testing.T) {
	SetSecret("test-secret")

	// A valid token without the gateway claims is not a verification failure,
	// the caller must not answer it with token_expired.
	raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = VerifySocketToken(token)
	if err == nil {
		t.Fatal("expected an error for missing claims")
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Fatal("missing claims must not map to ErrTokenInvalid")
	}
}

func TestParseTokenRejectsEmptyString(t *testing.T) {
	if _, err := ParseToken(""); err == nil {
		t.Fatal("expected an error for an empty token")
	}
}
