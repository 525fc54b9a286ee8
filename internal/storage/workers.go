package storage

type Employee struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Qualification         string  `json:"qualification"`
	Active                bool    `json:"active"`
	Sector                string  `json:"sector"`
	EfficiencyCoefficient float64 `json:"efficiency_coefficient"`
}

// Sector capacity is expressed in available work hours per day.
type Sector struct {
	Name           string  `json:"name"`
	HourlyCapacity float64 `json:"hourly_capacity"`
}
