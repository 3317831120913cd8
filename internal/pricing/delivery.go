package pricing

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// Tariff is the weight-tiered delivery fee table.
type Tariff struct {
	MetroKeyword  string
	MetroBase     float64 // up to 1 kg
	OutsideHalfKg float64 // up to 0.5 kg
	OutsideBase   float64 // up to 1 kg
	PerExtraKg    float64 // every started kg beyond 1 kg
}

var DefaultTariff = Tariff{
	MetroKeyword:  "dhaka",
	MetroBase:     100,
	OutsideHalfKg: 130,
	OutsideBase:   150,
	PerExtraKg:    20,
}

var folder = cases.Fold()

// IsMetro reports whether the district falls in the metro tier.
func (t Tariff) IsMetro(district string) bool {
	return strings.Contains(folder.String(district), folder.String(t.MetroKeyword))
}

// Fee returns the delivery fee for the district and total weight in kg.
// An empty district or a non-positive weight costs nothing.
func (t Tariff) Fee(district string, weightKg float64) float64 {
	district = strings.TrimSpace(district)
	if district == "" || weightKg <= 0 {
		return 0
	}

	var base float64
	switch {
	case t.IsMetro(district):
		base = t.MetroBase
	case weightKg <= 0.5:
		base = t.OutsideHalfKg
	default:
		base = t.OutsideBase
	}

	if weightKg <= 1 {
		return base
	}
	// guard against 1.2-1 = 0.19999999999999996 style noise pushing an exact
	// kilogram into the next step
	extraKg := math.Ceil(Round2(weightKg-1) - 1e-9)
	return Round2(base + extraKg*t.PerExtraKg)
}

// DeliveryFee applies DefaultTariff.
func DeliveryFee(district string, weightKg float64) float64 {
	return DefaultTariff.Fee(district, weightKg)
}
