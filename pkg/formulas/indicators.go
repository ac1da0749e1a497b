package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// BollingerBands represents Bollinger Bands values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MACD holds the latest MACD line, signal line and histogram
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// CalculateRSI returns the latest Relative Strength Index (0-100), or nil if
// there are fewer than length+1 closes.
//
//	RSI = 100 - (100 / (1 + RS)), RS = average gain / average loss over length periods
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}
	return last(talib.Rsi(closes, length))
}

// CalculateBollingerBands returns the latest bands around a length-period SMA
// at stdDevMultiplier standard deviations, or nil if there are too few closes.
func CalculateBollingerBands(closes []float64, length int, stdDevMultiplier float64) *BollingerBands {
	if length <= 1 || len(closes) < length {
		return nil
	}

	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, talib.SMA)
	u := last(upper)
	if u == nil {
		return nil
	}
	return &BollingerBands{
		Upper:  *u,
		Middle: middle[len(middle)-1],
		Lower:  lower[len(lower)-1],
	}
}

// CalculateMACD returns the latest MACD values, or nil if the series is too
// short for the slow EMA plus the signal smoothing.
func CalculateMACD(closes []float64, fast, slow, signal int) *MACD {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return nil
	}

	macd, sig, hist := talib.Macd(closes, fast, slow, signal)
	m := last(macd)
	if m == nil {
		return nil
	}
	return &MACD{
		MACD:      *m,
		Signal:    sig[len(sig)-1],
		Histogram: hist[len(hist)-1],
	}
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
