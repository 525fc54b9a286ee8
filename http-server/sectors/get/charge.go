package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"prod-dashboard/http-server/request"
	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/dashboard"
)

type ChargeReader interface {
	Charge(ctx context.Context, q dashboard.Query) ([]calculator.SectorCharge, error)
}

// GetCharge отдает загрузку секторов по оставшимся часам OF в работе.
func GetCharge(log *slog.Logger, reader ChargeReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sectors.get.GetCharge"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		charge, err := reader.Charge(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		overloaded := 0
		for _, c := range charge {
			if c.Overloaded {
				overloaded++
			}
		}
		if overloaded > 0 {
			log.Info("overloaded sectors", slog.Int("count", overloaded))
		}

		response.OK(w, r, charge)
	}
}
