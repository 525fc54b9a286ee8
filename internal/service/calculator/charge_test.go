package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prod-dashboard/internal/storage"
)

func rec(sector string, status storage.Status, planned, elapsed float64) Record {
	o := storage.ManufacturingOrder{Sector: sector, Status: status, PlannedDuration: planned, ElapsedDuration: elapsed}
	return Record{ManufacturingOrder: o, Metrics: Derive(o, nil, params())}
}

func TestChargeRates(t *testing.T) {
	sectors := []storage.Sector{
		{Name: "Atelier A", HourlyCapacity: 8},
		{Name: "Atelier B", HourlyCapacity: 4},
		{Name: "Atelier C", HourlyCapacity: 0},
	}
	records := []Record{
		rec("Atelier A", storage.StatusInProgress, 30, 10), // 20 h
		rec("Atelier A", storage.StatusInProgress, 25, 5),  // 20 h
		rec("Atelier A", storage.StatusCompleted, 100, 0),  // ignored
		rec("Atelier B", storage.StatusInProgress, 10, 12), // 0 h, overrun
		rec("Atelier C", storage.StatusInProgress, 5, 0),   // no capacity
		rec("Hors liste", storage.StatusInProgress, 3, 1),
	}
	employees := []storage.Employee{
		{Sector: "Atelier A", Active: true, EfficiencyCoefficient: 1.2},
		{Sector: "Atelier A", Active: true, EfficiencyCoefficient: 0.8},
		{Sector: "Atelier A", Active: false, EfficiencyCoefficient: 5},
		{Sector: "Atelier B", Active: true, EfficiencyCoefficient: 1},
	}

	charges := ChargeRates(sectors, records, employees, 5)
	require.Len(t, charges, 4)

	a := charges[0]
	assert.Equal(t, "Atelier A", a.Sector)
	assert.Equal(t, 40.0, a.RemainingHours)
	assert.Equal(t, 40.0, a.AvailableHours)
	assert.Equal(t, 1.0, a.ChargeRate)
	assert.False(t, a.Overloaded, "ровно 100% ещё не перегрузка")
	assert.Equal(t, 2, a.InProgressOrders)
	assert.Equal(t, 2, a.ActiveOperators)
	assert.InDelta(t, 1.0, a.AvgOperatorEfficiency, 1e-9)

	b := charges[1]
	assert.Equal(t, 0.0, b.ChargeRate)
	assert.Equal(t, 1, b.ActiveOperators)

	c := charges[2]
	assert.Equal(t, 5.0, c.RemainingHours)
	assert.Equal(t, 0.0, c.ChargeRate)
	assert.False(t, c.Overloaded)

	extra := charges[3]
	assert.Equal(t, "Hors liste", extra.Sector)
	assert.Equal(t, 0.0, extra.HourlyCapacity)
	assert.Equal(t, 2.0, extra.RemainingHours)
}

func TestChargeRates_Overload(t *testing.T) {
	charges := ChargeRates(
		[]storage.Sector{{Name: "S", HourlyCapacity: 2}},
		[]Record{rec("S", storage.StatusInProgress, 21, 0)},
		nil, 10,
	)

	require.Len(t, charges, 1)
	assert.Equal(t, 1.05, charges[0].ChargeRate)
	assert.True(t, charges[0].Overloaded)
}

func TestChargeRates_Empty(t *testing.T) {
	assert.Empty(t, ChargeRates(nil, nil, nil, 5))
}
