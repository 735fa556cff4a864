/**
 * @description
 * Per-user rate limiting middleware backed by Redis. Limits are fixed
 * one-minute windows keyed by (scope, Clerk user ID); a broken Redis fails
 * open so a cache outage never takes registration down with it.
 */

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/app"
)

const rateLimitWindow = time.Minute

// RateLimit gates a route group to `limit` requests per user per minute under
// the given scope.
func RateLimit(limiter app.RateLimiter, scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject, ok := GetClerkUserID(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(r.Context(), scope, subject, limit, rateLimitWindow)
			if err != nil {
				// Fail open on limiter errors.
				next.ServeHTTP(w, r)
				return
			}
			if count > limit {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"rate limit exceeded","retry_after_seconds":%d}`, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
