package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/alerting"
)

type Checker interface {
	Check(ctx context.Context) (alerting.Result, error)
}

// RunCheck запускает одну проверку нарушений вне расписания.
func RunCheck(log *slog.Logger, checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.alerts.check.RunCheck"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		res, err := checker.Check(r.Context())
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("manual alert check done",
			slog.Int("breaches", res.Breaches),
			slog.Int("sent", res.Sent),
			slog.Int("failed", res.Failed),
		)

		response.OK(w, r, res)
	}
}

type SummarySender interface {
	SendSummary(ctx context.Context) (alerting.DailySummary, error)
}

// SendSummary отправляет ежедневную сводку немедленно.
func SendSummary(log *slog.Logger, sender SummarySender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.alerts.check.SendSummary"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		summary, err := sender.SendSummary(r.Context())
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("daily summary sent", slog.Int("completed", summary.Completed))

		response.OK(w, r, summary)
	}
}
