package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRealClientIPPrefersFirstForwardedHop(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1, 10.0.0.2")

	if got := RealClientIP(r); got != "203.0.113.7" {
		t.Fatalf("ip = %q, want 203.0.113.7", got)
	}
}

func TestRealClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.4:52100"

	if got := RealClientIP(r); got != "198.51.100.4" {
		t.Fatalf("ip = %q, want 198.51.100.4", got)
	}
}
