package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/calculator"
)

type OrderDetails interface {
	Order(ctx context.Context, id string) (calculator.Record, error)
}

func GetOrderDetails(log *slog.Logger, order OrderDetails) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrderDetails"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		details, err := order.Order(r.Context(), id)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, details)
	}
}
