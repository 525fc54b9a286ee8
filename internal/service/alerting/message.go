package alerting

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/google/uuid"
)

type Notification struct {
	ID       string
	Kind     Kind
	Severity Severity
	OrderID  string
	Subject  string
	Text     string
	HTML     string
}

// Sender delivers a notification. Implementations return a notification-kind
// error on failure.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

var severityColors = map[Severity]string{
	SeverityMedium:   "#ffc107",
	SeverityHigh:     "#fd7e14",
	SeverityCritical: "#dc3545",
}

var subjects = map[Kind]string{
	KindOverdue:     "OF en retard",
	KindTimeOverrun: "Dépassement de temps",
	KindNearDue:     "OF urgent",
}

var htmlBody = template.Must(template.New("breach").Parse(`<html><body style="font-family: Arial, sans-serif;">
<div style="border-left: 6px solid {{.Color}}; padding: 12px;">
<h2 style="color: {{.Color}};">{{.Title}}</h2>
<p>{{.Breach.Message}}</p>
<table cellpadding="4">
<tr><td><b>OF</b></td><td>{{.Breach.OrderID}}</td></tr>
<tr><td><b>Produit</b></td><td>{{.Breach.Product}}</td></tr>
<tr><td><b>Client</b></td><td>{{.Breach.Client}}</td></tr>
<tr><td><b>Secteur</b></td><td>{{.Breach.Sector}}</td></tr>
{{if not .Breach.DueDate.IsZero}}<tr><td><b>Échéance</b></td><td>{{.Breach.DueDate.Format "02/01/2006"}}</td></tr>{{end}}
<tr><td><b>Avancement production</b></td><td>{{printf "%.1f" .ProdPct}} %</td></tr>
<tr><td><b>Avancement temps</b></td><td>{{printf "%.1f" .TimePct}} %</td></tr>
<tr><td><b>Sévérité</b></td><td>{{.Breach.Severity}}</td></tr>
</table>
<p style="color: #888; font-size: 11px;">Notification {{.ID}}</p>
</div>
</body></html>`))

// Build renders the notification for one breach.
func Build(b Breach) (Notification, error) {
	id := uuid.NewString()
	title := subjects[b.Kind]

	var buf bytes.Buffer
	err := htmlBody.Execute(&buf, struct {
		ID      string
		Title   string
		Color   string
		Breach  Breach
		ProdPct float64
		TimePct float64
	}{
		ID:      id,
		Title:   title,
		Color:   severityColors[b.Severity],
		Breach:  b,
		ProdPct: b.ProductionProgress * 100,
		TimePct: b.TimeProgress * 100,
	})
	if err != nil {
		return Notification{}, fmt.Errorf("alerting.Build: render %s: %w", b.Kind, err)
	}

	return Notification{
		ID:       id,
		Kind:     b.Kind,
		Severity: b.Severity,
		OrderID:  b.OrderID,
		Subject:  fmt.Sprintf("[%s] %s - %s", b.Severity, title, b.OrderID),
		Text:     b.Message,
		HTML:     buf.String(),
	}, nil
}

// LogSender is used when no mail transport is configured.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Log.Warn("notification (mail disabled)",
		slog.String("id", n.ID),
		slog.String("kind", string(n.Kind)),
		slog.String("severity", string(n.Severity)),
		slog.String("order", n.OrderID),
		slog.String("subject", n.Subject),
		slog.String("text", n.Text),
	)
	return nil
}
