package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tokenregistry/internal/platform/middleware"
	"tokenregistry/pkg/platform/httputil"
)

// Middleware limits authenticated callers. It must run after
// middleware.RequireAuth. Limiter errors fail open.
func Middleware(l *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller, ok := middleware.GetCaller(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(ctx, caller.Hex())
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"caller", caller.Hex(),
					"request_id", middleware.GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, res)
			if !res.Allowed {
				logger.InfoContext(ctx, "caller rate limited",
					"caller", caller.Hex(),
					"request_id", middleware.GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter(time.Now())))
				httputil.WriteJSON(w, http.StatusTooManyRequests, &httputil.ErrorResponse{
					Error:       "rate_limit_exceeded",
					Description: "Too many requests from this caller. Please try again later.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, res *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if res.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}
