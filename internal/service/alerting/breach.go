package alerting

import (
	"fmt"
	"time"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

type Kind string

const (
	KindOverdue     Kind = "overdue"
	KindTimeOverrun Kind = "time_overrun"
	KindNearDue     Kind = "near_due"

	// не нарушения: отчёт о закрытии OF и ежедневная сводка
	KindCompleted    Kind = "completed"
	KindDailySummary Kind = "daily_summary"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rules parametrize the near-due urgency check.
type Rules struct {
	UrgentWindowDays int
	UrgentProgress   float64
}

type Breach struct {
	Kind               Kind      `json:"kind"`
	Severity           Severity  `json:"severity"`
	OrderID            string    `json:"order_id"`
	Product            string    `json:"product"`
	Client             string    `json:"client"`
	Sector             string    `json:"sector"`
	DueDate            time.Time `json:"due_date,omitzero"`
	DelayDays          int       `json:"delay_days"`
	DaysToDue          int       `json:"days_to_due"`
	ProductionProgress float64   `json:"production_progress"`
	TimeProgress       float64   `json:"time_progress"`
	Message            string    `json:"message"`
}

// Detect lists breaches of in-progress orders in record order. One order may
// produce both an overdue and a time_overrun breach.
func Detect(records []calculator.Record, rules Rules) []Breach {
	out := make([]Breach, 0)

	for _, r := range records {
		if r.Status != storage.StatusInProgress {
			continue
		}

		if r.DelayDays > 0 {
			out = append(out, newBreach(r, KindOverdue, SeverityCritical,
				fmt.Sprintf("OF %s en retard de %d jour(s), avancement %.0f%%", r.ID, r.DelayDays, r.ProductionProgress*100)))
		}

		if r.TimeAlert {
			out = append(out, newBreach(r, KindTimeOverrun, SeverityHigh,
				fmt.Sprintf("OF %s: temps passé %.0f%% du temps prévu", r.ID, r.TimeProgress*100)))
		}

		if r.DelayDays == 0 && !r.DueDate.IsZero() &&
			r.DaysToDue >= 0 && r.DaysToDue <= rules.UrgentWindowDays &&
			r.ProductionProgress < rules.UrgentProgress {
			out = append(out, newBreach(r, KindNearDue, SeverityMedium,
				fmt.Sprintf("OF %s: échéance dans %d jour(s), avancement %.0f%%", r.ID, r.DaysToDue, r.ProductionProgress*100)))
		}
	}

	return out
}

func newBreach(r calculator.Record, kind Kind, sev Severity, msg string) Breach {
	return Breach{
		Kind:               kind,
		Severity:           sev,
		OrderID:            r.ID,
		Product:            r.Product,
		Client:             r.Client,
		Sector:             r.Sector,
		DueDate:            r.DueDate,
		DelayDays:          r.DelayDays,
		DaysToDue:          r.DaysToDue,
		ProductionProgress: r.ProductionProgress,
		TimeProgress:       r.TimeProgress,
		Message:            msg,
	}
}

// CountByKind is used for gauges and logs.
func CountByKind(breaches []Breach) map[string]int {
	counts := make(map[string]int)
	for _, b := range breaches {
		counts[string(b.Kind)]++
	}
	return counts
}
