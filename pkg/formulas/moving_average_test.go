package formulas

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(navs ...string) []Point {
	out := make([]Point, len(navs))
	for i, n := range navs {
		// descending input, as read from storage
		out[len(navs)-1-i] = Point{
			Date: fmt.Sprintf("2024-01-%02d", i+1),
			Nav:  decimal.RequireFromString(n),
		}
	}
	return out
}

func TestWithMovingAverages_SortsAscending(t *testing.T) {
	result := WithMovingAverages(points("1.0", "2.0", "3.0"), nil)

	require.Len(t, result, 3)
	assert.Equal(t, "2024-01-01", result[0].Date)
	assert.Equal(t, "2024-01-03", result[2].Date)
	assert.Equal(t, 1.0, result[0].Nav)
	assert.Nil(t, result[0].MA)
}

func TestWithMovingAverages_WindowStartsAtIndex(t *testing.T) {
	result := WithMovingAverages(points("1.0", "2.0", "3.0", "4.0", "5.0", "6.0"), []int{3})

	for i := 0; i < 2; i++ {
		_, ok := result[i].MA[3]
		assert.False(t, ok, "index %d must not carry ma3", i)
	}
	assert.InDelta(t, 2.0, result[2].MA[3], 1e-12)
	assert.InDelta(t, 3.0, result[3].MA[3], 1e-12)
	assert.InDelta(t, 5.0, result[5].MA[3], 1e-12)
}

func TestWithMovingAverages_DecimalMean(t *testing.T) {
	result := WithMovingAverages(points("1.1000", "1.2000", "1.3000"), []int{3})
	// float summation would give 1.2000000000000002
	assert.Equal(t, 1.2, result[2].MA[3])
}

func TestWithMovingAverages_IgnoresBadWindows(t *testing.T) {
	result := WithMovingAverages(points("1.0", "2.0"), []int{0, -5, 3, 2})

	assert.Nil(t, result[0].MA)
	require.Len(t, result[1].MA, 1)
	assert.InDelta(t, 1.5, result[1].MA[2], 1e-12)
}

func TestWithMovingAverages_DoesNotMutateInput(t *testing.T) {
	in := points("1.0", "2.0", "3.0")
	first := in[0].Date

	WithMovingAverages(in, []int{2})

	assert.Equal(t, first, in[0].Date)
}

func TestWithMovingAverages_Empty(t *testing.T) {
	assert.Empty(t, WithMovingAverages(nil, []int{5}))
}

func TestMAPoint_MarshalJSON(t *testing.T) {
	result := WithMovingAverages(points("1.0", "3.0"), []int{2, 5})

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"date":"2024-01-01","nav":1},
		{"date":"2024-01-02","nav":3,"ma2":2}
	]`, string(data))
}
