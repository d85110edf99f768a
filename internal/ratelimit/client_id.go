package ratelimit

import (
	"net/http"
	"strings"
)

// ClientID resolves the rate-limit identifier of a request: the first
// X-Forwarded-For entry, then X-Real-IP, then CF-Connecting-IP, else the
// shared "unknown" sentinel.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	return UnknownClient
}
