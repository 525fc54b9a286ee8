package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"prod-dashboard/internal/service/report"
)

const (
	SheetOrders = "Orders"
	SheetKPIs   = "KPIs"
	SheetCharge = "Charge"
)

// Excel builds the xlsx workbook. onRow, when set, is called after every
// order row is written.
func Excel(s Synthesis, onRow func()) ([]byte, error) {
	const op = "export.Excel"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOrders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, name := range []string{SheetKPIs, SheetCharge} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("%s: new sheet %s: %w", op, name, err)
		}
	}

	// Жирная шапка с заливкой
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	if err := writeOrders(f, s, headerStyle, onRow); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := writeKPIs(f, s, headerStyle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := writeCharge(f, s, headerStyle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}
	return buf.Bytes(), nil
}

func writeOrders(f *excelize.File, s Synthesis, headerStyle int, onRow func()) error {
	titles := make([]any, len(columns))
	for i, c := range columns {
		titles[i] = c.Title
	}
	if err := writeHeader(f, SheetOrders, titles, headerStyle); err != nil {
		return err
	}

	for i, r := range s.Records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = cellValue(c.Value(r))
		}
		if err := f.SetSheetRow(SheetOrders, cellName(1, i+2), &row); err != nil {
			return fmt.Errorf("order %s: %w", r.ID, err)
		}
		if onRow != nil {
			onRow()
		}
	}

	return f.SetColWidth(SheetOrders, "A", "G", 15)
}

func writeKPIs(f *excelize.File, s Synthesis, headerStyle int) error {
	if err := writeHeader(f, SheetKPIs, []any{"Indicateur", "Valeur"}, headerStyle); err != nil {
		return err
	}

	k := s.KPIs
	rows := [][]any{
		{"Total OF", k.TotalOrders},
		{"En cours", k.InProgress},
		{"Terminés", k.Completed},
		{"Arrêtés", k.Stopped},
		{"Planifiés", k.Planned},
		{"En erreur", k.Errored},
		{"Avancement production moyen (%)", report.Percent(k.AvgProductionProgress, 2)},
		{"Avancement temps moyen (%)", report.Percent(k.AvgTimeProgress, 2)},
		{"Alertes temps", k.Alerts},
		{"Taux d'alerte (%)", report.Round(k.AlertRate, 2)},
		{"Efficacité moyenne (%)", report.Percent(k.AvgEfficiency, 2)},
		{"OF en retard", k.Overdue},
		{"Taux de complétion (%)", report.Round(k.CompletionRate, 2)},
		{"Quantité demandée", report.Round(k.TotalRequested, 2)},
		{"Quantité produite", report.Round(k.TotalProduced, 2)},
		{"Taux de production (%)", report.Round(k.ProductionRate, 2)},
		{"Temps unitaire historique moyen", report.Round(k.AvgUnitTime, 4)},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(SheetKPIs, cellName(1, i+2), &row); err != nil {
			return err
		}
	}

	return f.SetColWidth(SheetKPIs, "A", "A", 36)
}

func writeCharge(f *excelize.File, s Synthesis, headerStyle int) error {
	header := []any{"Secteur", "Capacité (h/j)", "Jours", "Heures disponibles", "Heures restantes",
		"Taux de charge (%)", "Surcharge", "OF en cours", "Opérateurs actifs", "Efficacité opérateurs"}
	if err := writeHeader(f, SheetCharge, header, headerStyle); err != nil {
		return err
	}

	for i, c := range s.Charge {
		row := []any{
			c.Sector,
			report.Round(c.HourlyCapacity, 2),
			c.PeriodDays,
			report.Round(c.AvailableHours, 2),
			report.Round(c.RemainingHours, 2),
			report.Percent(c.ChargeRate, 2),
			c.Overloaded,
			c.InProgressOrders,
			c.ActiveOperators,
			report.Round(c.AvgOperatorEfficiency, 3),
		}
		if err := f.SetSheetRow(SheetCharge, cellName(1, i+2), &row); err != nil {
			return fmt.Errorf("sector %s: %w", c.Sector, err)
		}
	}

	return f.SetColWidth(SheetCharge, "A", "A", 20)
}

func writeHeader(f *excelize.File, sheet string, titles []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &titles); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", cellName(len(titles), 1), style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	// Закрепляем первую строку
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue keeps numbers numeric and leaves missing dates blank.
func cellValue(v any) any {
	switch x := v.(type) {
	case float64:
		return report.Round(x, 4)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.Format(dateLayout)
	default:
		return v
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
