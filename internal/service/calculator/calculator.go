// Package calculator derives production metrics from raw ERP orders.
//
// Every function here is pure: the same inputs always give the same output and
// nothing touches the database or the clock. Divisions with a non-positive
// denominator yield 0, which is a business rule and not an error.
package calculator

import (
	"time"

	"prod-dashboard/internal/storage"
)

type Priority string

const (
	PriorityUrgent   Priority = "urgent"
	PriorityPriority Priority = "priority"
	PriorityNormal   Priority = "normal"
)

// Rank orders priorities for backlog sorting, most pressing first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityPriority:
		return 1
	default:
		return 2
	}
}

// Params carries the inputs that are configuration rather than data.
type Params struct {
	Today              time.Time
	NearTermWindowDays int
}

// Metrics are the derived, never persisted, values of one order.
type Metrics struct {
	ProductionProgress     float64  `json:"production_progress"`
	TimeProgress           float64  `json:"time_progress"`
	TimeAlert              bool     `json:"time_alert"`
	Efficiency             float64  `json:"efficiency"`
	EfficiencyDefined      bool     `json:"efficiency_defined"`
	RemainingQuantity      float64  `json:"remaining_quantity"`
	RemainingTime          float64  `json:"remaining_time"`
	DelayDays              int      `json:"delay_days"`
	DaysToDue              int      `json:"days_to_due"`
	Priority               Priority `json:"priority"`
	LaunchYear             int      `json:"launch_year"`
	LaunchWeek             int      `json:"launch_week"`
	HistoricalUnitTime     float64  `json:"historical_unit_time"`
	EstimatedRemainingTime float64  `json:"estimated_remaining_time"`
}

// Record is an order together with its metrics. Both are flattened in JSON.
type Record struct {
	storage.ManufacturingOrder
	Metrics
}

func ProductionProgress(requested, produced float64) float64 {
	if requested <= 0 {
		return 0
	}
	return produced / requested
}

func TimeProgress(planned, elapsed float64) float64 {
	if planned <= 0 {
		return 0
	}
	return elapsed / planned
}

// TimeAlert is strict: a ratio of exactly 1 is on schedule.
func TimeAlert(timeProgress float64) bool {
	return timeProgress > 1
}

// Efficiency is planned over elapsed time. ok is false when nothing was spent
// yet or when no time was planned.
func Efficiency(planned, elapsed float64) (value float64, ok bool) {
	if planned <= 0 || elapsed <= 0 {
		return 0, false
	}
	return planned / elapsed, true
}

// ClassifyPriority uses the delay and the signed day distance to the due date.
func ClassifyPriority(delayDays, daysToDue int, hasDue bool, windowDays int) Priority {
	switch {
	case delayDays > 0:
		return PriorityUrgent
	case hasDue && daysToDue >= 0 && daysToDue <= windowDays:
		return PriorityPriority
	default:
		return PriorityNormal
	}
}

// ISOWeek returns the ISO-8601 year and week of t, zeros for the zero time.
func ISOWeek(t time.Time) (year, week int) {
	if t.IsZero() {
		return 0, 0
	}
	return t.ISOWeek()
}

// DaysBetween counts calendar days from a to b, ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func Derive(o storage.ManufacturingOrder, unitTimes UnitTimes, p Params) Metrics {
	m := Metrics{
		ProductionProgress: ProductionProgress(o.RequestedQuantity, o.ProducedQuantity),
		TimeProgress:       TimeProgress(o.PlannedDuration, o.ElapsedDuration),
		RemainingQuantity:  max(o.RequestedQuantity-o.ProducedQuantity, 0),
		RemainingTime:      max(o.PlannedDuration-o.ElapsedDuration, 0),
	}
	m.TimeAlert = TimeAlert(m.TimeProgress)
	m.Efficiency, m.EfficiencyDefined = Efficiency(o.PlannedDuration, o.ElapsedDuration)

	hasDue := !o.DueDate.IsZero()
	if hasDue {
		m.DaysToDue = DaysBetween(p.Today, o.DueDate)
		if o.Status == storage.StatusInProgress && m.DaysToDue < 0 {
			m.DelayDays = -m.DaysToDue
		}
	}
	m.Priority = ClassifyPriority(m.DelayDays, m.DaysToDue, hasDue, p.NearTermWindowDays)

	m.LaunchYear, m.LaunchWeek = ISOWeek(o.LaunchDate)

	m.HistoricalUnitTime = unitTimes.Lookup(o.Product, o.Family)
	m.EstimatedRemainingTime = m.RemainingQuantity * m.HistoricalUnitTime

	return m
}

// DeriveAll keeps the input order.
func DeriveAll(orders []storage.ManufacturingOrder, unitTimes UnitTimes, p Params) []Record {
	records := make([]Record, 0, len(orders))
	for _, o := range orders {
		records = append(records, Record{ManufacturingOrder: o, Metrics: Derive(o, unitTimes, p)})
	}
	return records
}
