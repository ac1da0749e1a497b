package holdings

import (
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestValueFromAmount(t *testing.T) {
	v, err := ValueFromAmount(dec("10000"), dec("1.2345"), decPtr("10"))
	require.NoError(t, err)

	assert.Equal(t, "8100.4455", money.FormatShares(v.Shares))
	assert.Equal(t, "10000.00", money.FormatAmount(v.Amount))
	require.NotNil(t, v.ProfitAmount)
	assert.Equal(t, "909.09", money.FormatAmount(*v.ProfitAmount))
	assert.Equal(t, "10", v.ProfitRate.String())
}

func TestValueFromAmount_NoRateNoProfit(t *testing.T) {
	v, err := ValueFromAmount(dec("500"), dec("2"), nil)
	require.NoError(t, err)
	assert.Nil(t, v.ProfitAmount)
	assert.Nil(t, v.ProfitRate)
}

func TestValueFromAmount_Rejects(t *testing.T) {
	_, err := ValueFromAmount(dec("500"), decimal.Zero, nil)
	assert.Error(t, err)

	_, err = ValueFromAmount(dec("500"), dec("1"), decPtr("-100"))
	assert.Error(t, err)
}

func TestValueFromShares(t *testing.T) {
	v, err := ValueFromShares(dec("1000.5"), dec("1.2345"), decPtr("-20"))
	require.NoError(t, err)

	// 1000.5 * 1.2345 = 1235.11725
	assert.Equal(t, "1235.12", money.FormatAmount(v.Amount))
	assert.Equal(t, "1000.5000", money.FormatShares(v.Shares))
	// 1235.11725 - 1235.11725/0.8
	assert.Equal(t, "-308.78", money.FormatAmount(*v.ProfitAmount))
}

func TestOverlay(t *testing.T) {
	at := time.Now()
	o := Overlay(dec("8100.4455"), dec("1.25"), decPtr("1.26"), &at)

	assert.Equal(t, "10125.56", money.FormatAmount(o.Amount))
	assert.Equal(t, "1.2500", money.FormatNav(o.Nav))
	assert.Equal(t, &at, o.UpdateTime)
}
