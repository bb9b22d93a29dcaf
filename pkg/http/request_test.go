package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	trusted := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		config     *IPConfig
		want       string
	}{
		{
			name:       "plain remote addr",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header ignored from untrusted peer",
			remoteAddr: "203.0.113.7:51234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			config:     trusted,
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header honored from trusted proxy",
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.1.2.3"},
			config:     trusted,
			want:       "198.51.100.1",
		},
		{
			name:       "real ip header honored from trusted proxy",
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Real-IP": "198.51.100.2"},
			config:     trusted,
			want:       "198.51.100.2",
		},
		{
			name:       "garbage forwarded value falls back to remote addr",
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			config:     trusted,
			want:       "10.1.2.3",
		},
		{
			name:       "nil config never trusts headers",
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "10.1.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, ExtractClientIP(r, tt.config))
		})
	}
}
