package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualisation factor for daily NAV returns
const TradingDaysPerYear = 252

// CalculateReturns converts a NAV series to simple daily returns
// Returns[i] = (Nav[i+1] - Nav[i]) / Nav[i]
func CalculateReturns(navs []float64) []float64 {
	if len(navs) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		if navs[i-1] != 0 {
			returns[i-1] = (navs[i] - navs[i-1]) / navs[i-1]
		}
	}
	return returns
}

// AnnualizedVolatility is the sample standard deviation of daily returns
// scaled by sqrt(TradingDaysPerYear).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return stat.StdDev(dailyReturns, nil) * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the largest peak-to-trough decline as a negative
// fraction (-0.25 = 25% below the running peak), or 0 for a rising series.
func MaxDrawdown(navs []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range navs {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
