package get

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/storage"
)

type MockWorkers struct {
	mock.Mock
}

func (m *MockWorkers) Employees(ctx context.Context) ([]storage.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Employee), args.Error(1)
}

func TestGetWorkers(t *testing.T) {
	m := new(MockWorkers)
	m.On("Employees", mock.Anything).Return([]storage.Employee{
		{ID: "7", Name: "Dupont", Qualification: "Régleur", Active: true, Sector: "USINAGE", EfficiencyCoefficient: 1.1},
	}, nil).Once()
	m.On("Employees", mock.Anything).Return(nil, apperr.Query("database query failed"))

	h := GetWorkers(slog.Default(), m)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/workers", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":[{"id":"7","name":"Dupont","qualification":"Régleur","active":true,"sector":"USINAGE","efficiency_coefficient":1.1}]}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/workers", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}
