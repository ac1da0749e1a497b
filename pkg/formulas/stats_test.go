package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{1}))

	returns := CalculateReturns([]float64{1.0, 1.1, 0.99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, -0.1, returns[1], 1e-12)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01}))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01, 0.01, 0.01}))

	vol := AnnualizedVolatility([]float64{0.01, -0.01, 0.01, -0.01})
	expected := math.Sqrt(4.0/3.0) * 0.01 * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, expected, vol, 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, -0.5, MaxDrawdown([]float64{1, 2, 1, 1.5}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}
