package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"prod-dashboard/internal/service/report"
)

const (
	wideRule   = 100
	narrowRule = 50
)

// WriteText renders the plain-text production report.
func WriteText(w io.Writer, s Synthesis) error {
	const op = "export.WriteText"

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}
	rule := func(ch string, n int) { p("%s", strings.Repeat(ch, n)) }
	section := func(title string) {
		p("%s", title)
		rule("-", narrowRule)
	}

	rule("=", wideRule)
	p("RAPPORT DÉTAILLÉ DU TABLEAU DE BORD DE PRODUCTION")
	rule("=", wideRule)
	p("Date de génération: %s", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	if s.From.IsZero() && s.To.IsZero() {
		p("Période: Toutes les données")
	} else {
		p("Période analysée: %s à %s", dateOr(s.From, "Début"), dateOr(s.To, "Fin"))
	}
	p("")

	k := s.KPIs
	section("RÉSUMÉ EXÉCUTIF")
	p("• Total OF: %d", k.TotalOrders)
	p("• En cours: %d | Terminés: %d | Arrêtés: %d | Planifiés: %d | En erreur: %d",
		k.InProgress, k.Completed, k.Stopped, k.Planned, k.Errored)
	p("• OF clôturés (historique): %d", s.Historical)
	p("")

	section("INDICATEURS DE PERFORMANCE")
	p("• Avancement production moyen: %v%%", report.Percent(k.AvgProductionProgress, 1))
	p("• Avancement temps moyen: %v%%", report.Percent(k.AvgTimeProgress, 1))
	p("• Efficacité moyenne: %v%%", report.Percent(k.AvgEfficiency, 1))
	p("• Alertes temps: %d (%v%%)", k.Alerts, report.Round(k.AlertRate, 1))
	p("• OF en retard: %d", k.Overdue)
	p("• Taux de complétion: %v%%", report.Round(k.CompletionRate, 1))
	p("• Quantités: %v produites / %v demandées (%v%%)",
		report.Round(k.TotalProduced, 2), report.Round(k.TotalRequested, 2), report.Round(k.ProductionRate, 1))
	if k.AvgUnitTime > 0 {
		p("• Temps unitaire historique moyen: %v h", report.Round(k.AvgUnitTime, 3))
	}
	p("")

	section(fmt.Sprintf("TOP %d OF EN RETARD", len(s.TopDelayed)))
	if len(s.TopDelayed) == 0 {
		p("Aucun OF en retard")
	}
	for _, r := range s.TopDelayed {
		p("  • OF %s: %s - Client: %s - Retard: %d j - Avancement: %v%% - Priorité: %s",
			r.ID, r.Product, r.Client, r.DelayDays, report.Percent(r.ProductionProgress, 1), r.Priority)
	}
	p("")

	section("CHARGE PAR SECTEUR")
	if len(s.Charge) == 0 {
		p("Aucun secteur")
	}
	for _, c := range s.Charge {
		flag := ""
		if c.Overloaded {
			flag = " SURCHARGE"
		}
		p("• %s: %v%% (%v h restantes / %v h disponibles, %d OF, %d opérateurs)%s",
			c.Sector, report.Percent(c.ChargeRate, 1), report.Round(c.RemainingHours, 1),
			report.Round(c.AvailableHours, 1), c.InProgressOrders, c.ActiveOperators, flag)
	}
	p("")

	groups := func(title string, gs []report.GroupStats) {
		section(title)
		for _, g := range gs {
			p("• %s: %d (%v%%)", g.Key, g.Count, report.Round(g.Share, 1))
		}
		p("")
	}
	groups("RÉPARTITION PAR STATUT", s.ByStatus)
	groups(fmt.Sprintf("TOP %d FAMILLES TECHNIQUES", len(s.TopFamilies)), s.TopFamilies)
	groups(fmt.Sprintf("TOP %d CLIENTS", len(s.TopClients)), s.TopClients)

	rule("=", wideRule)
	p("FIN DU RAPPORT")
	rule("=", wideRule)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
