// Package request turns URL query parameters into dashboard queries.
package request

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/storage"
)

const dateLayout = "2006-01-02"

// ParseQuery reads from, to, status (repeatable or comma separated), family,
// client, sector, alert, priority and limit. Dates are calendar days in loc.
func ParseQuery(r *http.Request, loc *time.Location) (dashboard.Query, error) {
	return FromValues(r.URL.Query(), loc)
}

// FromValues is ParseQuery over already decoded values. The CLI builds them
// from its flags.
func FromValues(v url.Values, loc *time.Location) (dashboard.Query, error) {
	if loc == nil {
		loc = time.Local
	}

	var q dashboard.Query
	var err error

	if q.Filter.From, err = parseDate("from", v.Get("from"), loc); err != nil {
		return q, err
	}
	if q.Filter.To, err = parseDate("to", v.Get("to"), loc); err != nil {
		return q, err
	}

	for _, raw := range v["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			s, err := storage.ParseStatus(part)
			if err != nil {
				return q, err
			}
			q.Filter.Statuses = append(q.Filter.Statuses, s)
		}
	}

	q.Filter.Family = strings.TrimSpace(v.Get("family"))
	q.Filter.Client = strings.TrimSpace(v.Get("client"))
	q.Filter.Sector = strings.TrimSpace(v.Get("sector"))

	if raw := v.Get("alert"); raw != "" {
		if q.AlertOnly, err = strconv.ParseBool(raw); err != nil {
			return q, invalid("alert", raw)
		}
	}

	if raw := strings.ToLower(strings.TrimSpace(v.Get("priority"))); raw != "" {
		switch p := calculator.Priority(raw); p {
		case calculator.PriorityUrgent, calculator.PriorityPriority, calculator.PriorityNormal:
			q.Priority = p
		default:
			return q, invalid("priority", raw)
		}
	}

	if q.Limit, err = parseLimit(v.Get("limit")); err != nil {
		return q, err
	}

	if err := q.Filter.Validate(); err != nil {
		return q, err
	}

	return q, nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalid("limit", raw)
	}
	return n, nil
}

func parseDate(name, raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", name),
			apperr.WithDetail(name, raw), apperr.WithCause(err))
	}
	return t, nil
}

func invalid(name, raw string) error {
	return apperr.Validation(fmt.Sprintf("invalid %s parameter", name), apperr.WithDetail(name, raw))
}
