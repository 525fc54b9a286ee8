package report

import (
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

// KPIs are unrounded; ratios are in [0, n], rates are percentages.
type KPIs struct {
	TotalOrders           int     `json:"total_orders"`
	InProgress            int     `json:"in_progress"`
	Completed             int     `json:"completed"`
	Stopped               int     `json:"stopped"`
	Planned               int     `json:"planned"`
	Errored               int     `json:"errored"`
	AvgProductionProgress float64 `json:"avg_production_progress"`
	AvgTimeProgress       float64 `json:"avg_time_progress"`
	Alerts                int     `json:"alerts"`
	AlertRate             float64 `json:"alert_rate"`
	AvgEfficiency         float64 `json:"avg_efficiency"`
	Overdue               int     `json:"overdue"`
	CompletionRate        float64 `json:"completion_rate"`
	TotalRequested        float64 `json:"total_requested"`
	TotalProduced         float64 `json:"total_produced"`
	ProductionRate        float64 `json:"production_rate"`
	AvgUnitTime           float64 `json:"avg_unit_time"`
}

func ComputeKPIs(records []calculator.Record) KPIs {
	var k KPIs
	var prodSum, timeSum, effSum, unitSum float64
	var effN, unitN int

	for _, r := range records {
		k.TotalOrders++
		switch r.Status {
		case storage.StatusInProgress:
			k.InProgress++
		case storage.StatusCompleted:
			k.Completed++
		case storage.StatusStopped:
			k.Stopped++
		case storage.StatusPlanned:
			k.Planned++
		default:
			k.Errored++
		}

		prodSum += r.ProductionProgress
		timeSum += r.TimeProgress
		if r.TimeAlert {
			k.Alerts++
		}
		if r.EfficiencyDefined {
			effSum += r.Efficiency
			effN++
		}
		if r.DelayDays > 0 {
			k.Overdue++
		}
		if r.HistoricalUnitTime > 0 {
			unitSum += r.HistoricalUnitTime
			unitN++
		}
		k.TotalRequested += r.RequestedQuantity
		k.TotalProduced += r.ProducedQuantity
	}

	if k.TotalOrders == 0 {
		return k
	}

	n := float64(k.TotalOrders)
	k.AvgProductionProgress = prodSum / n
	k.AvgTimeProgress = timeSum / n
	k.AlertRate = percent(k.Alerts, k.TotalOrders)
	k.CompletionRate = percent(k.Completed, k.TotalOrders)
	if effN > 0 {
		k.AvgEfficiency = effSum / float64(effN)
	}
	if unitN > 0 {
		k.AvgUnitTime = unitSum / float64(unitN)
	}
	if k.TotalRequested > 0 {
		k.ProductionRate = k.TotalProduced / k.TotalRequested * 100
	}

	return k
}
