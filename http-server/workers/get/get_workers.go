package get

import (
	"context"
	"log/slog"
	"net/http"

	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/storage"
)

type Workers interface {
	Employees(ctx context.Context) ([]storage.Employee, error)
}

func GetWorkers(log *slog.Logger, worker Workers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workers.get.GetWorkers"

		workers, err := worker.Employees(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}

		response.OK(w, r, workers)
	}
}
