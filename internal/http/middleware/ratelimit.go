package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/wolfman30/padel-booking/internal/http/respond"
)

// RateLimit rejects clients exceeding perSecond requests per second, keyed by
// IP, with 429 and a JSON detail body. A non-positive limit disables it.
func RateLimit(perSecond int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perSecond, time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Detail(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
