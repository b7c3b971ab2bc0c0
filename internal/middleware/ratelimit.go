package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per tenant, or per client address before
// authentication.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return limit(requestLimit, windowLength, func(r *http.Request) string {
		if tenantID := GetTenantID(r.Context()); tenantID != "" {
			return "tenant:" + tenantID
		}
		return ""
	})
}

// UserRateLimit limits requests per user. Turns call the model several times,
// so the message endpoint gets its own budget.
func UserRateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return limit(requestLimit, windowLength, func(r *http.Request) string {
		if userID := GetUserID(r.Context()); userID != "" {
			return "user:" + GetTenantID(r.Context()) + ":" + userID
		}
		return ""
	})
}

func limit(requestLimit int, windowLength time.Duration, key func(*http.Request) string) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(windowLength.Seconds()))
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if k := key(r); k != "" {
				return k, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
