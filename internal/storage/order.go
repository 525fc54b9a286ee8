package storage

import (
	"fmt"
	"strings"
	"time"

	"prod-dashboard/internal/apperr"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusStopped    Status = "stopped"
	StatusPlanned    Status = "planned"
	StatusError      Status = "error"
)

// Коды статусов ERP (STATUT)
var statusCodes = map[string]Status{
	"C": StatusInProgress,
	"T": StatusCompleted,
	"A": StatusStopped,
	"P": StatusPlanned,
}

// AllStatuses lists statuses in display order.
var AllStatuses = []Status{StatusInProgress, StatusCompleted, StatusStopped, StatusPlanned, StatusError}

// StatusFromCode maps a raw ERP code; unknown codes are reported as error.
func StatusFromCode(code string) Status {
	if s, ok := statusCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s
	}
	return StatusError
}

// Code returns the ERP code of a status, empty for StatusError.
func (s Status) Code() string {
	for code, st := range statusCodes {
		if st == s {
			return code
		}
	}
	return ""
}

// ParseStatus accepts either an ERP code ("C") or a status name ("in_progress").
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	if s, ok := statusCodes[strings.ToUpper(v)]; ok {
		return s, nil
	}
	for _, s := range AllStatuses {
		if string(s) == strings.ToLower(v) {
			return s, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("unknown status %q", v), apperr.WithDetail("status", v))
}

// ManufacturingOrder is one OF row as read from the ERP.
type ManufacturingOrder struct {
	ID                    string    `json:"id"`
	Product               string    `json:"product"`
	Designation           string    `json:"designation"`
	Status                Status    `json:"status"`
	StatusCode            string    `json:"status_code"`
	RequestedQuantity     float64   `json:"requested_quantity"`
	ProducedQuantity      float64   `json:"produced_quantity"`
	PlannedDuration       float64   `json:"planned_duration"`
	ElapsedDuration       float64   `json:"elapsed_duration"`
	LaunchDate            time.Time `json:"launch_date,omitzero"`
	DueDate               time.Time `json:"due_date,omitzero"`
	RequestedAvailability time.Time `json:"requested_availability,omitzero"`
	Client                string    `json:"client"`
	Family                string    `json:"family"`
	Sector                string    `json:"sector"`
	Affair                string    `json:"affair"`
}

// HistoricalOrder is a closed OF, used for historical unit times only.
type HistoricalOrder struct {
	ManufacturingOrder
	ClosedAt time.Time `json:"closed_at,omitzero"`
}
