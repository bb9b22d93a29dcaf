package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// RateLimitConfig holds rate limiting knobs for a route group.
type RateLimitConfig struct {
	RequestLimit int
	Window       time.Duration
}

// DefaultAuthRateLimit is the limit applied to credential endpoints: 5
// attempts per minute per client IP.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestLimit: 5,
		Window:       1 * time.Minute,
	}
}

// RateLimitByIP limits requests per client IP within the configured window.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestLimit,
		config.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded, try again later")
		}),
	)
}
