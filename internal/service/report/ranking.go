package report

import (
	"sort"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

// Backlog returns in-progress orders that still have quantity to produce,
// most pressing first: priority, then delay, then due date, then id.
func Backlog(records []calculator.Record) []calculator.Record {
	out := make([]calculator.Record, 0)
	for _, r := range records {
		if r.Status == storage.StatusInProgress && r.RemainingQuantity > 0 {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.DelayDays != b.DelayDays {
			return a.DelayDays > b.DelayDays
		}
		if !a.DueDate.Equal(b.DueDate) {
			return dueBefore(a.DueDate.IsZero(), b.DueDate.IsZero(), a.DueDate.Before(b.DueDate))
		}
		return a.ID < b.ID
	})

	return out
}

// dueBefore puts orders without a due date last.
func dueBefore(aZero, bZero, aBefore bool) bool {
	switch {
	case aZero:
		return false
	case bZero:
		return true
	default:
		return aBefore
	}
}

// TopByDelay keeps the n records with the largest delay; ties by id.
func TopByDelay(records []calculator.Record, n int) []calculator.Record {
	out := make([]calculator.Record, 0)
	for _, r := range records {
		if r.DelayDays > 0 {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DelayDays != out[j].DelayDays {
			return out[i].DelayDays > out[j].DelayDays
		}
		return out[i].ID < out[j].ID
	})

	return head(out, n)
}

// Recent lists the n most recently launched orders.
func Recent(records []calculator.Record, n int) []calculator.Record {
	out := make([]calculator.Record, 0, len(records))
	for _, r := range records {
		if !r.LaunchDate.IsZero() {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LaunchDate.Equal(out[j].LaunchDate) {
			return out[i].LaunchDate.After(out[j].LaunchDate)
		}
		return out[i].ID < out[j].ID
	})

	return head(out, n)
}

// TopGroups returns the n largest groups by count, keeping first-seen order on ties.
func TopGroups(groups []GroupStats, n int) []GroupStats {
	out := append([]GroupStats(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []GroupStats{}
	}
	return out
}

func head(records []calculator.Record, n int) []calculator.Record {
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}
