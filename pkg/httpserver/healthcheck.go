package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantscope/pkg/logger"
)

// HealthCheckHandler serves liveness and readiness checks.
//
// With no checks it is a liveness check answering 200 "ALIVE". With checks,
// each runs with the request context; all passing answers 200 "READY" and
// the first failure answers 503 "NOT_READY".
func HealthCheckHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
