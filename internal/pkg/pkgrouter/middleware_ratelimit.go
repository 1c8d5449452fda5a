package pkgrouter

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
	"golang.org/x/time/rate"
)

// MiddlewareRateLimit rejects requests with 429 once the limiter has no tokens left.
//
// The limiter is shared by every request passing through the middleware, so it
// caps total throughput of the wrapped endpoints rather than per-client usage.
func MiddlewareRateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.WarnContext(r.Context(), "request rejected by rate limiter", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				writeError(w, pkgerror.NewRateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
