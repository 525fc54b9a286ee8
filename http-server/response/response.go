package response

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"prod-dashboard/internal/apperr"
)

// Response is the envelope of every JSON endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, Response{Success: true, Data: data})
}

// Error writes the envelope for err with the status of its kind. Server-side
// failures are logged at ERROR, rejected requests at WARN.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	ErrorWithData(w, r, log, err, nil)
}

func ErrorWithData(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, data any) {
	status := apperr.StatusCode(err)

	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("kind", string(apperr.KindOf(err))),
		slog.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	render.Status(r, status)
	render.JSON(w, r, Response{Success: false, Data: data, Message: apperr.PublicMessage(err)})
}
