package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// errCodeRateLimited is the error code returned when a client exceeds its
// configured request rate.
const errCodeRateLimited = "rate_limited"

// Limiter is the subset of coordinator.RateLimiter the ingress API depends
// on, kept narrow here so middleware does not import the coordinator
// package directly.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitMiddleware enforces limit requests per window for a client,
// keyed by remote IP and the approved URL slug the request was routed
// through (set by AuthMiddleware before this runs). A limiter failure
// fails open: the request proceeds and the error is logged, so an
// unreachable rate-limit store never itself takes the ingress API down.
func RateLimitMiddleware(limiter Limiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetSlug(r.Context()) + ":" + clientIP(r)

			allowed, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				slog.Warn("rate limit check failed, failing open", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, errCodeRateLimited, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
