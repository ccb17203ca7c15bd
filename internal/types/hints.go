package types

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	significantFigures = 3
	lowCutOff          = 0.0001
	highCutOff         = 1e10
	maxDecimalPlaces   = 6
)

func numberHints(name string, rows []map[string]any) map[string]any {
	var nums []float64
	for _, row := range rows {
		if row == nil {
			continue
		}
		f, ok := toFloat(row[name])
		if !ok || f == 0 || math.Abs(f) <= lowCutOff {
			continue
		}
		nums = append(nums, f)
	}
	return map[string]any{
		"decimalPlaces":      optimalDecimalPlaces(nums, significantFigures),
		"significantFigures": significantFigures,
		"lowCutOff":          lowCutOff,
		"highCutOff":         highCutOff,
	}
}

// optimalDecimalPlaces is the fewest decimal places that show every
// number to sf significant figures, never more than a number actually
// has and never more than maxDecimalPlaces.
func optimalDecimalPlaces(nums []float64, sf int) int {
	best := 0
	for _, n := range nums {
		if math.IsInf(n, 0) || math.IsNaN(n) {
			continue
		}
		d := decimal.NewFromFloat(n)
		actual := 0
		if exp := int(d.Exponent()); exp < 0 {
			actual = -exp
		}
		magnitude := d.NumDigits() + int(d.Exponent()) - 1
		places := min(max(sf-1-magnitude, 0), actual, maxDecimalPlaces)
		best = max(best, places)
	}
	return best
}
