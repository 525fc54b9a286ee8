package get

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/dashboard"
)

type MockChargeReader struct {
	mock.Mock
}

func (m *MockChargeReader) Charge(ctx context.Context, q dashboard.Query) ([]calculator.SectorCharge, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calculator.SectorCharge), args.Error(1)
}

func TestGetCharge(t *testing.T) {
	m := new(MockChargeReader)
	m.On("Charge", mock.Anything, mock.Anything).Return([]calculator.SectorCharge{
		{Sector: "USINAGE", HourlyCapacity: 8, PeriodDays: 5, AvailableHours: 40, RemainingHours: 50, ChargeRate: 1.25, Overloaded: true},
		{Sector: "MONTAGE", HourlyCapacity: 8, PeriodDays: 5, AvailableHours: 40, RemainingHours: 20, ChargeRate: 0.5},
	}, nil)

	rr := httptest.NewRecorder()
	GetCharge(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sectors/charge?sector=USINAGE", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool                      `json:"success"`
		Data    []calculator.SectorCharge `json:"data"`
	}
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Overloaded)
	assert.Equal(t, 1.25, resp.Data[0].ChargeRate)

	q := m.Calls[0].Arguments.Get(1).(dashboard.Query)
	assert.Equal(t, "USINAGE", q.Filter.Sector)
}

func TestGetCharge_Errors(t *testing.T) {
	m := new(MockChargeReader)
	m.On("Charge", mock.Anything, mock.Anything).Return(nil, apperr.Connection("database unreachable"))

	rr := httptest.NewRecorder()
	GetCharge(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sectors/charge", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	GetCharge(slog.Default(), m, time.UTC).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sectors/charge?to=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNumberOfCalls(t, "Charge", 1)
}
