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
	"prod-dashboard/internal/service/report"
	"prod-dashboard/internal/storage"
)

type DashboardReader interface {
	Dashboard(ctx context.Context, q dashboard.Query) (dashboard.Dashboard, error)
	KPIs(ctx context.Context, q dashboard.Query) (report.KPIs, error)
	Summary(ctx context.Context, q dashboard.Query, by report.GroupBy) (report.Summary, error)
	Backlog(ctx context.Context, q dashboard.Query) ([]calculator.Record, error)
	FilterOptions(ctx context.Context) (storage.FilterOptions, error)
}

func logger(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Dashboard отдает сводку для главной страницы.
func Dashboard(log *slog.Logger, svc DashboardReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.Dashboard"
		log := logger(log, op, r)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		data, err := svc.Dashboard(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Debug("dashboard built", slog.Int("orders", data.KPIs.TotalOrders))

		response.OK(w, r, data)
	}
}

func KPIs(log *slog.Logger, svc DashboardReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.KPIs"
		log := logger(log, op, r)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		kpis, err := svc.KPIs(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, kpis)
	}
}

// Summary группирует OF по ?group_by=status|family|sector|client|week.
func Summary(log *slog.Logger, svc DashboardReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.Summary"
		log := logger(log, op, r)

		by, err := report.ParseGroupBy(r.URL.Query().Get("group_by"))
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		summary, err := svc.Summary(r.Context(), q, by)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, summary)
	}
}

func Backlog(log *slog.Logger, svc DashboardReader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.Backlog"
		log := logger(log, op, r)

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		backlog, err := svc.Backlog(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, backlog)
	}
}

func FilterOptions(log *slog.Logger, svc DashboardReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.FilterOptions"
		log := logger(log, op, r)

		opts, err := svc.FilterOptions(r.Context())
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		response.OK(w, r, opts)
	}
}
