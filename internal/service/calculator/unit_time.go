package calculator

import "prod-dashboard/internal/storage"

type UnitTimeKey struct {
	Product string
	Family  string
}

// UnitTimes maps (product, family) to the mean historical hours per unit.
type UnitTimes map[UnitTimeKey]float64

func (u UnitTimes) Lookup(product, family string) float64 {
	if u == nil {
		return 0
	}
	return u[UnitTimeKey{Product: product, Family: family}]
}

// HistoricalUnitTimes averages elapsed/produced per (product, family). Rows
// without production or without booked time are skipped.
func HistoricalUnitTimes(history []storage.HistoricalOrder) UnitTimes {
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[UnitTimeKey]*acc)

	for _, h := range history {
		if h.ProducedQuantity <= 0 || h.ElapsedDuration <= 0 {
			continue
		}
		key := UnitTimeKey{Product: h.Product, Family: h.Family}
		a, ok := sums[key]
		if !ok {
			a = &acc{}
			sums[key] = a
		}
		a.sum += h.ElapsedDuration / h.ProducedQuantity
		a.n++
	}

	out := make(UnitTimes, len(sums))
	for k, a := range sums {
		out[k] = a.sum / float64(a.n)
	}
	return out
}
