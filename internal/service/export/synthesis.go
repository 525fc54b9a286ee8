package export

import (
	"time"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/report"
)

// Synthesis is everything the text and spreadsheet reports print.
// The dashboard service assembles it from one consistent set of records.
type Synthesis struct {
	GeneratedAt time.Time
	From        time.Time
	To          time.Time

	Records     []calculator.Record
	Historical  int
	KPIs        report.KPIs
	TopDelayed  []calculator.Record
	Charge      []calculator.SectorCharge
	ByStatus    []report.GroupStats
	TopFamilies []report.GroupStats
	TopClients  []report.GroupStats
}
