package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/ratelimit"
)

// signInKeyPrefix namespaces sign-in counters in redis.
const signInKeyPrefix = "signin"

// SignInRateLimit throttles sign-in attempts per client address. Limiter
// failures answer 500 rather than letting requests through. m may be nil.
func SignInRateLimit(limiter ratelimit.Limiter, allowedPerMin int, m *metrics.Manager) func(next http.Handler) http.Handler {
	limit := ratelimit.PerMinute(allowedPerMin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), signInKeyPrefix+":"+clientAddr(r), limit)
			if err != nil {
				shared.RespondWithMessageAndLog(w, r, http.StatusInternalServerError,
					"An error occurred during login", err)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.CounterSignIns.WithLabelValues(metrics.SignInRateLimited).Inc()
			}
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			shared.RespondWithMessageAndLog(w, r, http.StatusTooManyRequests,
				"Too many sign-in attempts", nil)
		})
	}
}

// clientAddr returns the host part of RemoteAddr. RealIP rewrites it only
// for requests arriving through a trusted proxy.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
