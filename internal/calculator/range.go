package calculator

import (
	"errors"
	"math"
)

// MinPriceSentinel stands in for "no minimum yet" outside the first timestep.
const MinPriceSentinel = 1e20

// UpdatePriceRange folds price into a running high/low. On the bootstrap
// timestep the seed price also takes part, so the first month's range covers
// the launch price; afterwards neutral terms (0 and MinPriceSentinel) are used.
func UpdatePriceRange(high, low, price, seedPrice float64, bootstrap bool) (float64, float64) {
	hiTerm, loTerm := 0.0, MinPriceSentinel
	if bootstrap {
		hiTerm, loTerm = seedPrice, seedPrice
	}
	return math.Max(high, math.Max(price, hiTerm)), math.Min(low, math.Min(price, loTerm))
}

// CalculateVolatility returns the peak-to-trough range as a percentage of the peak.
func CalculateVolatility(high, low float64) float64 {
	if high <= 0 {
		return 0
	}
	return (high - low) / high * 100
}

// CalculatePriceRange scans a price series and returns its high and low.
func CalculatePriceRange(prices []float64) (high, low float64, err error) {
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range prices {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return high, low, nil
}

// CalculateDrawdown returns the largest peak-to-later-trough decline of the
// series as a percentage of that peak.
func CalculateDrawdown(prices []float64) float64 {
	var peak, worst float64
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			if dd := (peak - p) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
