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

type ResponseOrders struct {
	Orders []calculator.Record `json:"orders"`
	Total  int                 `json:"total"`
}

type GetOrders interface {
	Records(ctx context.Context, q dashboard.Query) ([]calculator.Record, error)
}

// GetOrdersFilter отдает OF с рассчитанными показателями по фильтрам из query.
func GetOrdersFilter(log *slog.Logger, getOrders GetOrders, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrdersFilter"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		orders, err := getOrders.Records(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Debug("orders loaded", slog.Int("count", len(orders)))

		response.OK(w, r, ResponseOrders{
			Orders: orders,
			Total:  len(orders),
		})
	}
}
