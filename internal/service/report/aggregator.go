// Package report groups derived order records into summaries and KPIs.
//
// Groups are always emitted in the order in which their key is first seen in
// the input, so identical input yields identical output, including ordering.
package report

import (
	"fmt"
	"strings"
	"time"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
)

type GroupBy string

const (
	ByStatus GroupBy = "status"
	ByFamily GroupBy = "family"
	BySector GroupBy = "sector"
	ByClient GroupBy = "client"
	ByWeek   GroupBy = "week"
)

func ParseGroupBy(v string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(v))); g {
	case ByStatus, ByFamily, BySector, ByClient, ByWeek:
		return g, nil
	case "":
		return ByStatus, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown group_by %q", v), apperr.WithDetail("group_by", v))
	}
}

// DateRange filters on launch date, both ends inclusive. Zero ends are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From.IsZero() && r.To.IsZero() {
		return true
	}
	if t.IsZero() {
		return false
	}
	if !r.From.IsZero() && calculator.DaysBetween(r.From, t) < 0 {
		return false
	}
	if !r.To.IsZero() && calculator.DaysBetween(t, r.To) < 0 {
		return false
	}
	return true
}

type GroupStats struct {
	Key                   string  `json:"key"`
	Count                 int     `json:"count"`
	Share                 float64 `json:"share"`
	AvgProductionProgress float64 `json:"avg_production_progress"`
	AvgTimeProgress       float64 `json:"avg_time_progress"`
	AlertCount            int     `json:"alert_count"`
	AlertRate             float64 `json:"alert_rate"`
	AvgEfficiency         float64 `json:"avg_efficiency"`
	EfficiencySamples     int     `json:"efficiency_samples"`
	RequestedQuantity     float64 `json:"requested_quantity"`
	ProducedQuantity      float64 `json:"produced_quantity"`
}

type Summary struct {
	GroupBy GroupBy      `json:"group_by"`
	Total   int          `json:"total"`
	Groups  []GroupStats `json:"groups"`
	KPIs    KPIs         `json:"kpis"`
}

// Aggregate groups records by the given dimension. Empty input yields a
// zero-valued summary with an empty, non-nil group list.
func Aggregate(records []calculator.Record, by GroupBy, rng DateRange) Summary {
	filtered := make([]calculator.Record, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.LaunchDate) {
			filtered = append(filtered, r)
		}
	}

	type acc struct {
		stats   GroupStats
		prodSum float64
		timeSum float64
		effSum  float64
	}

	index := make(map[string]int)
	accs := make([]*acc, 0)

	for _, r := range filtered {
		key := groupKey(r, by)
		i, ok := index[key]
		if !ok {
			i = len(accs)
			index[key] = i
			accs = append(accs, &acc{stats: GroupStats{Key: key}})
		}
		a := accs[i]
		a.stats.Count++
		a.prodSum += r.ProductionProgress
		a.timeSum += r.TimeProgress
		if r.TimeAlert {
			a.stats.AlertCount++
		}
		if r.EfficiencyDefined {
			a.effSum += r.Efficiency
			a.stats.EfficiencySamples++
		}
		a.stats.RequestedQuantity += r.RequestedQuantity
		a.stats.ProducedQuantity += r.ProducedQuantity
	}

	total := len(filtered)
	groups := make([]GroupStats, 0, len(accs))
	for _, a := range accs {
		s := a.stats
		n := float64(s.Count)
		s.Share = percent(s.Count, total)
		s.AvgProductionProgress = a.prodSum / n
		s.AvgTimeProgress = a.timeSum / n
		s.AlertRate = percent(s.AlertCount, s.Count)
		if s.EfficiencySamples > 0 {
			s.AvgEfficiency = a.effSum / float64(s.EfficiencySamples)
		}
		groups = append(groups, s)
	}

	return Summary{
		GroupBy: by,
		Total:   total,
		Groups:  groups,
		KPIs:    ComputeKPIs(filtered),
	}
}

func groupKey(r calculator.Record, by GroupBy) string {
	switch by {
	case ByFamily:
		return r.Family
	case BySector:
		return r.Sector
	case ByClient:
		return r.Client
	case ByWeek:
		if r.LaunchWeek == 0 {
			return "unscheduled"
		}
		return fmt.Sprintf("%04d-W%02d", r.LaunchYear, r.LaunchWeek)
	default:
		return string(r.Status)
	}
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
