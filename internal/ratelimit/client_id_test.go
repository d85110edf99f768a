package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "1.1.1.1"},
		{"blank forwarded falls through", map[string]string{"X-Forwarded-For": " ,", "X-Real-IP": "2.2.2.2"}, "2.2.2.2"},
		{"real ip", map[string]string{"X-Real-IP": "2.2.2.2", "CF-Connecting-IP": "3.3.3.3"}, "2.2.2.2"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "3.3.3.3"}, "3.3.3.3"},
		{"no headers", nil, UnknownClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/gateway/chat", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientID(req))
		})
	}
}
