package export

import (
	"strconv"
	"time"

	"prod-dashboard/internal/service/calculator"
)

const dateLayout = "2006-01-02"

type column struct {
	Name  string
	Title string
	Value func(r calculator.Record) any
}

// columns mirrors the on-screen order table. CSV and XLSX share it.
var columns = []column{
	{"id", "OF", func(r calculator.Record) any { return r.ID }},
	{"product", "Produit", func(r calculator.Record) any { return r.Product }},
	{"designation", "Désignation", func(r calculator.Record) any { return r.Designation }},
	{"status", "Statut", func(r calculator.Record) any { return string(r.Status) }},
	{"client", "Client", func(r calculator.Record) any { return r.Client }},
	{"family", "Famille", func(r calculator.Record) any { return r.Family }},
	{"sector", "Secteur", func(r calculator.Record) any { return r.Sector }},
	{"launch_date", "Lancé le", func(r calculator.Record) any { return r.LaunchDate }},
	{"due_date", "Lancement au plus tard", func(r calculator.Record) any { return r.DueDate }},
	{"requested_quantity", "Qté demandée", func(r calculator.Record) any { return r.RequestedQuantity }},
	{"produced_quantity", "Cumul entrées", func(r calculator.Record) any { return r.ProducedQuantity }},
	{"planned_duration", "Durée prévue", func(r calculator.Record) any { return r.PlannedDuration }},
	{"elapsed_duration", "Temps passés", func(r calculator.Record) any { return r.ElapsedDuration }},
	{"production_progress", "Avancement prod", func(r calculator.Record) any { return r.ProductionProgress }},
	{"time_progress", "Avancement temps", func(r calculator.Record) any { return r.TimeProgress }},
	{"time_alert", "Alerte temps", func(r calculator.Record) any { return r.TimeAlert }},
	{"efficiency", "Efficacité", func(r calculator.Record) any { return r.Efficiency }},
	{"remaining_quantity", "Qté restante", func(r calculator.Record) any { return r.RemainingQuantity }},
	{"delay_days", "Retard (j)", func(r calculator.Record) any { return r.DelayDays }},
	{"priority", "Priorité", func(r calculator.Record) any { return string(r.Priority) }},
	{"launch_week", "Semaine", func(r calculator.Record) any { return r.LaunchWeek }},
	{"historical_unit_time", "Temps unitaire hist.", func(r calculator.Record) any { return r.HistoricalUnitTime }},
}

// Columns returns the export header names in table order.
func Columns() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// formatValue writes floats in the shortest form that parses back to the same float64.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(dateLayout)
	default:
		return ""
	}
}

func dateOr(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.Format(dateLayout)
}
