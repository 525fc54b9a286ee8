package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/F2026-001", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/orders/{id}", "404")))
}

func TestNotifierCounters(t *testing.T) {
	m := New()

	m.NotificationSent("overdue")
	m.NotificationSent("overdue")
	m.NotificationFailed("time_overrun")
	m.CheckCompleted("ok")
	m.OpenBreaches(map[string]int{"overdue": 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("overdue", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("time_overrun", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.breaches.WithLabelValues("overdue")))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "prod_dashboard_notifications_total")
}
