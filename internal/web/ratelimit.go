package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/seduc-am/planoacao/internal/logging"
)

// newRateLimit returns middleware allowing limit requests per period for each
// client address. Each call gets its own in-memory store, so the API-wide and
// upload limits are counted independently.
func newRateLimit(name string, limit int, period time.Duration) func(http.Handler) http.Handler {
	rate := limiter.Rate{Period: period, Limit: int64(limit)}
	lim := limiter.New(memory.NewStore(), rate)

	mw := stdlib.NewMiddleware(lim,
		stdlib.WithKeyGetter(clientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter(w.Header().Get("X-RateLimit-Reset"), period))
			logging.FromContext(r.Context()).Warn("rate limit reached", "limiter", name, "ip", clientIP(r))
			respondError(w, r, errRateLimited)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			respondError(w, r, err)
		}),
	)
	return mw.Handler
}

// retryAfter converts the limiter's reset timestamp into seconds from now,
// falling back to a whole period.
func retryAfter(reset string, period time.Duration) string {
	at, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return strconv.Itoa(int(period.Seconds()))
	}
	secs := max(at-time.Now().Unix(), 1)
	return strconv.FormatInt(secs, 10)
}
