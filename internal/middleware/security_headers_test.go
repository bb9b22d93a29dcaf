package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(env string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: env})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersAlwaysSet(t *testing.T) {
	rec := serveWithHeaders("development", nil)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "same-origin", rec.Header().Get("Cross-Origin-Opener-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
}

func TestProductionCSPIsStrict(t *testing.T) {
	dev := serveWithHeaders("development", nil)
	prod := serveWithHeaders("production", nil)

	assert.Contains(t, dev.Header().Get("Content-Security-Policy"), "unsafe-eval")
	assert.NotContains(t, prod.Header().Get("Content-Security-Policy"), "unsafe-eval")
	assert.Contains(t, prod.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestHSTSOnlyForProductionHTTPS(t *testing.T) {
	plain := serveWithHeaders("production", nil)
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	forwarded := serveWithHeaders("production", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.Contains(t, forwarded.Header().Get("Strict-Transport-Security"), "max-age=31536000")

	dev := serveWithHeaders("development", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.Empty(t, dev.Header().Get("Strict-Transport-Security"))
}
