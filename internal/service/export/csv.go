package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

// CSVEncoder writes records row by row so callers can report progress.
type CSVEncoder struct {
	w *csv.Writer
}

func NewCSVEncoder(w io.Writer, sep rune) *CSVEncoder {
	cw := csv.NewWriter(w)
	if sep != 0 {
		cw.Comma = sep
	}
	return &CSVEncoder{w: cw}
}

func (e *CSVEncoder) WriteHeader() error {
	return e.w.Write(Columns())
}

func (e *CSVEncoder) WriteRecord(r calculator.Record) error {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = formatValue(c.Value(r))
	}
	return e.w.Write(row)
}

func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

func WriteCSV(w io.Writer, records []calculator.Record, sep rune) error {
	const op = "export.WriteCSV"

	enc := NewCSVEncoder(w, sep)
	if err := enc.WriteHeader(); err != nil {
		return fmt.Errorf("%s: header: %w", op, err)
	}
	for _, r := range records {
		if err := enc.WriteRecord(r); err != nil {
			return fmt.Errorf("%s: row %s: %w", op, r.ID, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("%s: flush: %w", op, err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV. Columns are matched by header
// name; unknown columns are ignored.
func ReadCSV(r io.Reader, sep rune) ([]calculator.Record, error) {
	const op = "export.ReadCSV"

	cr := csv.NewReader(r)
	if sep != 0 {
		cr.Comma = sep
	}

	header, err := cr.Read()
	if err == io.EOF {
		return []calculator.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", op, err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}

	var out []calculator.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", op, line, err)
		}

		p := rowParser{row: row, pos: pos}
		var rec calculator.Record
		rec.ID = p.str("id")
		rec.Product = p.str("product")
		rec.Designation = p.str("designation")
		rec.Status = storage.Status(p.str("status"))
		rec.Client = p.str("client")
		rec.Family = p.str("family")
		rec.Sector = p.str("sector")
		rec.LaunchDate = p.date("launch_date")
		rec.DueDate = p.date("due_date")
		rec.RequestedQuantity = p.float("requested_quantity")
		rec.ProducedQuantity = p.float("produced_quantity")
		rec.PlannedDuration = p.float("planned_duration")
		rec.ElapsedDuration = p.float("elapsed_duration")
		rec.ProductionProgress = p.float("production_progress")
		rec.TimeProgress = p.float("time_progress")
		rec.TimeAlert = p.bool("time_alert")
		rec.Efficiency = p.float("efficiency")
		rec.RemainingQuantity = p.float("remaining_quantity")
		rec.DelayDays = p.int("delay_days")
		rec.Priority = calculator.Priority(p.str("priority"))
		rec.LaunchWeek = p.int("launch_week")
		rec.HistoricalUnitTime = p.float("historical_unit_time")

		if p.err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", op, line, apperr.Validation("malformed value", apperr.WithCause(p.err)))
		}
		out = append(out, rec)
	}

	return out, nil
}

type rowParser struct {
	row []string
	pos map[string]int
	err error
}

func (p *rowParser) str(name string) string {
	i, ok := p.pos[name]
	if !ok || i >= len(p.row) {
		return ""
	}
	return p.row[i]
}

func (p *rowParser) float(name string) float64 {
	v := p.str(name)
	if v == "" || p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return f
}

func (p *rowParser) int(name string) int {
	v := p.str(name)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return n
}

func (p *rowParser) bool(name string) bool {
	v := p.str(name)
	if v == "" || p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return b
}

func (p *rowParser) date(name string) time.Time {
	v := p.str(name)
	if v == "" || p.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return t
}
