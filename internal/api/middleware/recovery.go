package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
)

// PanicRecovery turns a handler panic into a 500 response and counts it.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func PanicRecovery(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.FromContext(r.Context()).Error("panic serving request",
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()))
				if m != nil {
					m.CounterHandlePanic.Inc()
				}
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
