package generate_text

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"prod-dashboard/http-server/request"
	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/service/export"
)

type SynthesisSource interface {
	Synthesis(ctx context.Context, q dashboard.Query) (export.Synthesis, error)
}

func GenerateReportText(log *slog.Logger, src SynthesisSource, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.generate-report.GenerateReportText"
		log := log.With(slog.String("op", op))

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		syn, err := src.Synthesis(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		var buf bytes.Buffer
		if err := export.WriteText(&buf, syn); err != nil {
			response.Error(w, r, log, err)
			return
		}

		fileName := fmt.Sprintf("rapport_detaille_production_%s.txt", syn.GeneratedAt.Format("20060102_150405"))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Warn("client went away during download", slog.String("error", err.Error()))
		}
	}
}
