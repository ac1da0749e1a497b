package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse(t *testing.T) {
	v, err := Parse(" 1.2345 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(d("1.2345")))

	_, err = Parse("")
	assert.Error(t, err)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestParseOptional(t *testing.T) {
	v, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptional("10")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Equal(d("10")))
}

func TestShares_MatchesDecimalReference(t *testing.T) {
	tests := []struct {
		amount string
		nav    string
		want   string
	}{
		{"10000", "1.2345", "8100.4455"},
		{"0.1", "0.3", "0.3333"},
		{"1000", "3", "333.3333"},
		{"5000", "2.0000", "2500.0000"},
		{"123456.78", "1.0001", "123444.4356"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"/"+tt.nav, func(t *testing.T) {
			got, err := Shares(d(tt.amount), d(tt.nav))
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatShares(got))

			// reference computed with a much wider precision
			ref := d(tt.amount).DivRound(d(tt.nav), 40).StringFixed(4)
			assert.Equal(t, ref, FormatShares(got))
		})
	}
}

func TestShares_RejectsNonPositiveNav(t *testing.T) {
	_, err := Shares(d("100"), decimal.Zero)
	assert.Error(t, err)

	_, err = Shares(d("100"), d("-1"))
	assert.Error(t, err)
}

func TestCostBasisAndProfit(t *testing.T) {
	cost, err := CostBasis(d("10000"), d("10"))
	require.NoError(t, err)
	assert.Equal(t, "9090.91", FormatAmount(cost))

	profit, err := ProfitFromRate(d("10000"), d("10"))
	require.NoError(t, err)
	assert.Equal(t, "909.09", FormatAmount(profit))

	loss, err := ProfitFromRate(d("8000"), d("-20"))
	require.NoError(t, err)
	assert.Equal(t, "-2000.00", FormatAmount(loss))

	_, err = CostBasis(d("100"), d("-100"))
	assert.Error(t, err)
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "1234.57", FormatAmount(Amount(d("1000"), d("1.234567"))))
}

func TestMean(t *testing.T) {
	assert.True(t, Mean(nil).IsZero())
	assert.Equal(t, "2.0000", FormatNav(Mean([]decimal.Decimal{d("1"), d("2"), d("3")})))
	assert.Equal(t, "0.3333333333333333", Mean([]decimal.Decimal{d("0.1"), d("0.2"), d("0.7"), d("0.3333333333333332")}).String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.0000", FormatNav(d("1")))
	assert.Equal(t, "0.13", FormatAmount(d("0.125")))
	assert.Equal(t, "2.0000", FormatShares(d("1.99995")))
	assert.True(t, RoundNav(d("1.23456")).Equal(d("1.2346")))
	assert.True(t, RoundAmount(d("1.005")).Equal(d("1.01")))
	assert.True(t, RoundShares(d("1.00004")).Equal(d("1")))
}

func TestFloatBoundary(t *testing.T) {
	assert.InDelta(t, 1.2345, Float(d("1.2345")), 1e-12)
}
