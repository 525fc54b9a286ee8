package storage

import (
	"time"

	"prod-dashboard/internal/apperr"
)

// OrderFilter is applied by the adapter in SQL. Zero values mean "no restriction".
type OrderFilter struct {
	From     time.Time
	To       time.Time
	Statuses []Status
	Family   string
	Client   string
	Sector   string
	OrderID  string
}

func (f OrderFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return apperr.Validation("end date is before start date",
			apperr.WithDetail("from", f.From.Format(time.DateOnly)),
			apperr.WithDetail("to", f.To.Format(time.DateOnly)),
		)
	}
	for _, s := range f.Statuses {
		if s == "" {
			return apperr.Validation("empty status in filter")
		}
	}
	return nil
}

type FilterOptions struct {
	Statuses     []Status  `json:"statuses"`
	Families     []string  `json:"families"`
	Clients      []string  `json:"clients"`
	Sectors      []string  `json:"sectors"`
	MinDate      time.Time `json:"min_date,omitzero"`
	MaxDate      time.Time `json:"max_date,omitzero"`
	TotalRecords int       `json:"total_records"`
}
