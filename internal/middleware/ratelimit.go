package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/handler"
)

// Limiter is implemented by ratelimit.FixedWindowLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RetryAfter() time.Duration
}

// RateLimit throttles a route per caller. Signed-in callers are keyed by
// user id, anonymous ones by client IP (run chi's RealIP first).
//
// A nil limiter disables limiting. A limiter error rejects the request:
// the guarded endpoints call paid upstream APIs.
func RateLimit(limiter Limiter, scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + callerKey(r)
			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limiter unavailable", slog.String("key", key), slog.String("error", err.Error()))
			}
			if !ok {
				retry := int(math.Ceil(limiter.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				handler.WriteError(w, apperror.RateLimited("Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return "user:" + id.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
