package report

import (
	"github.com/shopspring/decimal"

	"prod-dashboard/internal/service/calculator"
)

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Distribution struct {
	Progress   []Bucket `json:"progress"`
	Efficiency []Bucket `json:"efficiency"`
}

// Distribute buckets production progress (in %) and efficiency. Upper bounds
// are exclusive except for the 75-100 progress bucket, which includes 100 %.
func Distribute(records []calculator.Record) Distribution {
	d := Distribution{
		Progress: []Bucket{
			{Label: "0-25"}, {Label: "25-50"}, {Label: "50-75"}, {Label: "75-100"}, {Label: ">100"},
		},
		Efficiency: []Bucket{
			{Label: "<0.5"}, {Label: "0.5-0.8"}, {Label: "0.8-1.0"}, {Label: ">1.0"},
		},
	}

	for _, r := range records {
		p := r.ProductionProgress * 100
		switch {
		case p < 25:
			d.Progress[0].Count++
		case p < 50:
			d.Progress[1].Count++
		case p < 75:
			d.Progress[2].Count++
		case p <= 100:
			d.Progress[3].Count++
		default:
			d.Progress[4].Count++
		}

		if !r.EfficiencyDefined {
			continue
		}
		switch e := r.Efficiency; {
		case e < 0.5:
			d.Efficiency[0].Count++
		case e < 0.8:
			d.Efficiency[1].Count++
		case e <= 1.0:
			d.Efficiency[2].Count++
		default:
			d.Efficiency[3].Count++
		}
	}

	return d
}

// Round is for presentation only, half away from zero.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Percent formats a ratio as a rounded percentage.
func Percent(ratio float64, places int32) float64 {
	return Round(ratio*100, places)
}
