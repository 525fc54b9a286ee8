package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/dashboard"
)

const pingTimeout = 2 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) (dashboard.Health, error)
}

// Health answers 200 when the ERP database is reachable and 503 otherwise.
// The body carries the health record in both cases.
func Health(log *slog.Logger, checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.get.Health"

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		h, err := checker.Health(ctx)
		if err != nil {
			response.ErrorWithData(w, r, log.With(slog.String("op", op)), err, h)
			return
		}

		response.OK(w, r, h)
	}
}
