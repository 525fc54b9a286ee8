package calculator

import "prod-dashboard/internal/storage"

type SectorCharge struct {
	Sector                string  `json:"sector"`
	HourlyCapacity        float64 `json:"hourly_capacity"`
	PeriodDays            int     `json:"period_days"`
	AvailableHours        float64 `json:"available_hours"`
	RemainingHours        float64 `json:"remaining_hours"`
	ChargeRate            float64 `json:"charge_rate"`
	Overloaded            bool    `json:"overloaded"`
	InProgressOrders      int     `json:"in_progress_orders"`
	ActiveOperators       int     `json:"active_operators"`
	AvgOperatorEfficiency float64 `json:"avg_operator_efficiency"`
}

// ChargeRates computes, per sector, the remaining planned hours of in-progress
// orders over hourly capacity × period. Configured sectors come first in the
// given order, sectors known only from orders follow in first-occurrence order
// with zero capacity.
func ChargeRates(sectors []storage.Sector, records []Record, employees []storage.Employee, periodDays int) []SectorCharge {
	index := make(map[string]int, len(sectors))
	out := make([]SectorCharge, 0, len(sectors))

	add := func(name string, capacity float64) *SectorCharge {
		if i, ok := index[name]; ok {
			return &out[i]
		}
		index[name] = len(out)
		out = append(out, SectorCharge{Sector: name, HourlyCapacity: capacity, PeriodDays: periodDays})
		return &out[len(out)-1]
	}

	for _, s := range sectors {
		add(s.Name, s.HourlyCapacity)
	}

	for _, r := range records {
		if r.Status != storage.StatusInProgress {
			continue
		}
		c := add(r.Sector, 0)
		c.RemainingHours += r.RemainingTime
		c.InProgressOrders++
	}

	coeffSums := make(map[string]float64)
	for _, e := range employees {
		if !e.Active {
			continue
		}
		i, ok := index[e.Sector]
		if !ok {
			continue
		}
		out[i].ActiveOperators++
		coeffSums[e.Sector] += e.EfficiencyCoefficient
	}

	for i := range out {
		c := &out[i]
		c.AvailableHours = c.HourlyCapacity * float64(periodDays)
		if c.AvailableHours > 0 {
			c.ChargeRate = c.RemainingHours / c.AvailableHours
		}
		c.Overloaded = c.ChargeRate > 1
		if c.ActiveOperators > 0 {
			c.AvgOperatorEfficiency = coeffSums[c.Sector] / float64(c.ActiveOperators)
		}
	}

	return out
}
