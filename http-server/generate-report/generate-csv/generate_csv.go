package generate_csv

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"prod-dashboard/http-server/request"
	"prod-dashboard/http-server/response"
	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/service/export"
)

type RecordsSource interface {
	Records(ctx context.Context, q dashboard.Query) ([]calculator.Record, error)
}

// GenerateReportCSV выгружает таблицу OF; разделитель задается ?sep=, по умолчанию ';'.
func GenerateReportCSV(log *slog.Logger, src RecordsSource, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.generate-report.GenerateReportCSV"
		log := log.With(slog.String("op", op))

		sep, err := separator(r.URL.Query().Get("sep"))
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		q, err := request.ParseQuery(r, loc)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		records, err := src.Records(r.Context(), q)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		// Собираем в буфер, чтобы ошибка не оборвала уже начатый ответ
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, records, sep); err != nil {
			response.Error(w, r, log, err)
			return
		}

		fileName := fmt.Sprintf("export_production_%s.csv", time.Now().Format("20060102_150405"))

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Warn("client went away during download", slog.String("error", err.Error()))
		}
	}
}

func separator(raw string) (rune, error) {
	switch raw {
	case "":
		return ';', nil
	case `\t`, "tab":
		return '\t', nil
	}
	sep, size := utf8.DecodeRuneInString(raw)
	if size != len(raw) || sep == '"' || sep == '\r' || sep == '\n' || sep == utf8.RuneError {
		return 0, apperr.Validation("invalid sep parameter", apperr.WithDetail("sep", raw))
	}
	return sep, nil
}
