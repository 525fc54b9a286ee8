package generate_csv

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/service/export"
	"prod-dashboard/internal/storage"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Records(ctx context.Context, q dashboard.Query) ([]calculator.Record, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calculator.Record), args.Error(1)
}

func TestGenerateReportCSV(t *testing.T) {
	records := []calculator.Record{{
		ManufacturingOrder: storage.ManufacturingOrder{ID: "F1", Product: "P1", Status: storage.StatusInProgress, RequestedQuantity: 3},
		Metrics:            calculator.Metrics{ProductionProgress: 1.0 / 3, Priority: calculator.PriorityNormal},
	}}

	m := new(MockSource)
	m.On("Records", mock.Anything, mock.Anything).Return(records, nil)

	rr := httptest.NewRecorder()
	GenerateReportCSV(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/export/csv?sep=,", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=export_production_")

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(export.Columns(), ","), lines[0])

	back, err := export.ReadCSV(strings.NewReader(rr.Body.String()), ',')
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestGenerateReportCSV_DefaultSeparator(t *testing.T) {
	m := new(MockSource)
	m.On("Records", mock.Anything, mock.Anything).Return([]calculator.Record{}, nil)

	rr := httptest.NewRecorder()
	GenerateReportCSV(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/export/csv", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "id;product;"))
}

func TestGenerateReportCSV_BadSeparator(t *testing.T) {
	m := new(MockSource)

	rr := httptest.NewRecorder()
	GenerateReportCSV(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/export/csv?sep=%3B%3B", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
}

func TestSeparator(t *testing.T) {
	for raw, want := range map[string]rune{"": ';', ",": ',', "|": '|', `\t`: '\t', "tab": '\t'} {
		got, err := separator(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{`"`, "\n", ";;"} {
		_, err := separator(raw)
		assert.Error(t, err, raw)
	}
}
