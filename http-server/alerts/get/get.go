package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"prod-dashboard/http-server/request"
	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/alerting"
	"prod-dashboard/internal/service/dashboard"
)

type ResponseAlerts struct {
	Alerts []alerting.Breach `json:"alerts"`
	ByKind map[string]int    `json:"by_kind"`
}

type AlertsReader interface {
	Alerts(ctx context.Context, q dashboard.Query) ([]alerting.Breach, error)
}

func GetAlerts(log *slog.Logger, reader AlertsReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.alerts.get.GetAlerts"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		breaches, err := reader.Alerts(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, ResponseAlerts{
			Alerts: breaches,
			ByKind: alerting.CountByKind(breaches),
		})
	}
}
