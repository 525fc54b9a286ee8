package alerting

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/report"
	"prod-dashboard/internal/storage"
)

// DailySummary is the once-a-day production digest.
type DailySummary struct {
	Date      time.Time      `json:"date"`
	KPIs      report.KPIs    `json:"kpis"`
	Completed int            `json:"completed"`
	Breaches  map[string]int `json:"breaches"`
}

// Summarize builds the digest from the in-progress records and the orders
// closed since the previous one.
func Summarize(date time.Time, records []calculator.Record, completed []storage.HistoricalOrder, breaches []Breach) DailySummary {
	return DailySummary{
		Date:      date,
		KPIs:      report.ComputeKPIs(records),
		Completed: len(completed),
		Breaches:  CountByKind(breaches),
	}
}

var summaryBody = template.Must(template.New("summary").Parse(`<html><body style="font-family: Arial, sans-serif;">
<h2>Synthèse de production du {{.S.Date.Format "02/01/2006"}}</h2>
<table cellpadding="4">
<tr><td><b>OF en cours</b></td><td>{{.S.KPIs.InProgress}}</td></tr>
<tr><td><b>OF clôturés</b></td><td>{{.S.Completed}}</td></tr>
<tr><td><b>OF en retard</b></td><td>{{.S.KPIs.Overdue}}</td></tr>
<tr><td><b>Alertes temps</b></td><td>{{.S.KPIs.Alerts}}</td></tr>
<tr><td><b>Avancement moyen</b></td><td>{{printf "%.1f" .ProdPct}} %</td></tr>
<tr><td><b>Efficacité moyenne</b></td><td>{{printf "%.2f" .S.KPIs.AvgEfficiency}}</td></tr>
</table>
{{if .S.Breaches}}<h3>Alertes ouvertes</h3>
<ul>{{range $kind, $n := .S.Breaches}}<li>{{$kind}}: {{$n}}</li>{{end}}</ul>{{end}}
<p style="color: #888; font-size: 11px;">Notification {{.ID}}</p>
</body></html>`))

// BuildSummary renders the daily digest.
func BuildSummary(s DailySummary) (Notification, error) {
	id := uuid.NewString()
	prodPct := report.Percent(s.KPIs.AvgProductionProgress, 1)

	var buf bytes.Buffer
	err := summaryBody.Execute(&buf, struct {
		ID      string
		S       DailySummary
		ProdPct float64
	}{ID: id, S: s, ProdPct: prodPct})
	if err != nil {
		return Notification{}, fmt.Errorf("alerting.BuildSummary: %w", err)
	}

	return Notification{
		ID:       id,
		Kind:     KindDailySummary,
		Severity: SeverityInfo,
		Subject:  fmt.Sprintf("Synthèse de production du %s", s.Date.Format("02/01/2006")),
		Text: fmt.Sprintf("%d OF en cours, %d clôturés, %d en retard, %d alertes temps, avancement moyen %.1f%%",
			s.KPIs.InProgress, s.Completed, s.KPIs.Overdue, s.KPIs.Alerts, prodPct),
		HTML: buf.String(),
	}, nil
}

var completionBody = template.Must(template.New("completion").Parse(`<html><body style="font-family: Arial, sans-serif;">
<div style="border-left: 6px solid #28a745; padding: 12px;">
<h2 style="color: #28a745;">OF terminé</h2>
<table cellpadding="4">
<tr><td><b>OF</b></td><td>{{.O.ID}}</td></tr>
<tr><td><b>Produit</b></td><td>{{.O.Product}}</td></tr>
<tr><td><b>Client</b></td><td>{{.O.Client}}</td></tr>
<tr><td><b>Quantité produite</b></td><td>{{.O.ProducedQuantity}} / {{.O.RequestedQuantity}}</td></tr>
{{if not .O.ClosedAt.IsZero}}<tr><td><b>Clôturé le</b></td><td>{{.O.ClosedAt.Format "02/01/2006"}}</td></tr>{{end}}
</table>
<p style="color: #888; font-size: 11px;">Notification {{.ID}}</p>
</div>
</body></html>`))

// BuildCompletion renders the notice for a closed order.
func BuildCompletion(o storage.HistoricalOrder) (Notification, error) {
	id := uuid.NewString()

	var buf bytes.Buffer
	if err := completionBody.Execute(&buf, struct {
		ID string
		O  storage.HistoricalOrder
	}{ID: id, O: o}); err != nil {
		return Notification{}, fmt.Errorf("alerting.BuildCompletion: %w", err)
	}

	return Notification{
		ID:       id,
		Kind:     KindCompleted,
		Severity: SeverityInfo,
		OrderID:  o.ID,
		Subject:  fmt.Sprintf("[info] OF terminé - %s", o.ID),
		Text:     fmt.Sprintf("OF %s clôturé, %g/%g produits", o.ID, o.ProducedQuantity, o.RequestedQuantity),
		HTML:     buf.String(),
	}, nil
}
