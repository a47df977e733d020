package web

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"trade-docs/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request limiter backed by Redis. Windows are
// keyed by the authenticated company, or by client IP before authentication.
type RateLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

// NewRateLimiter returns a limiter allowing limit requests per window.
func NewRateLimiter(client redis.Cmdable, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware enforces the limit. Redis failures let the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + clientKey(r)
		ctx := r.Context()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			l := logger.WithRequestID(requestIDFromContext(ctx))
			l.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		// First hit of a window starts its expiry.
		if count == 1 {
			if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
				l := logger.WithRequestID(requestIDFromContext(ctx))
				l.Warn().Err(err).Msg("rate limiter expire failed")
			}
		}

		if count > rl.limit {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			writeError(w, r, fmt.Sprintf("rate limit exceeded, try again in %d seconds", int(rl.window.Seconds())),
				"RATE_LIMITED", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if a, ok := actorFromContext(r.Context()); ok {
		return "company:" + a.CompanyID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
