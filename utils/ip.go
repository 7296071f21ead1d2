package utils

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP resolves the originating client address behind the load
// balancer. X-Forwarded-For lists the client first and every proxy after it.
func RealClientIP(r *http.Request) string {
	if xfwd := r.Header.Get("X-Forwarded-For"); xfwd != "" {
		if i := strings.IndexByte(xfwd, ','); i >= 0 {
			xfwd = xfwd[:i]
		}
		return strings.TrimSpace(xfwd)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
