package generate_excel

import (
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

type GenerateExcelHandler interface {
	Synthesis(ctx context.Context, q dashboard.Query) (export.Synthesis, error)
}

func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.generate-report.GenerateReportExcel"
		log := log.With(slog.String("op", op))

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		syn, err := gen.Synthesis(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		excelBytes, err := export.Excel(syn, nil)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		// ФОРМИРУЕМ ОТВЕТ
		fileName := fmt.Sprintf("export_production_%s.xlsx", syn.GeneratedAt.Format("20060102_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Warn("client went away during download", slog.String("error", err.Error()))
		}
	}
}
