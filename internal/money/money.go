// Package money is the decimal arithmetic layer used for every share, NAV and amount figure.
//
// Nothing in here touches float64 except the boundary helper Float;
// persisted values are fixed-precision strings produced by the Format* functions.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fractional digits used when values are persisted.
const (
	SharesPlaces = 4
	AmountPlaces = 2
	NavPlaces    = 4

	// divPlaces is the precision kept on intermediate quotients
	divPlaces = 16
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Parse reads a decimal from its string form (surrounding whitespace allowed).
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty decimal value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// ParseOptional parses s, returning nil for an empty string.
func ParseOptional(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Float converts to float64 for presentation only.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Shares returns amount / nav. nav must be strictly positive.
func Shares(amount, nav decimal.Decimal) (decimal.Decimal, error) {
	if !nav.IsPositive() {
		return decimal.Zero, fmt.Errorf("nav must be positive, got %s", nav.String())
	}
	return amount.DivRound(nav, divPlaces), nil
}

// Amount returns shares * nav
func Amount(shares, nav decimal.Decimal) decimal.Decimal {
	return shares.Mul(nav)
}

// CostBasis recovers the invested principal from a current value and a declared
// profit percentage: amount / (1 + ratePct/100).
func CostBasis(amount, ratePct decimal.Decimal) (decimal.Decimal, error) {
	divisor := one.Add(ratePct.DivRound(hundred, divPlaces))
	if !divisor.IsPositive() {
		return decimal.Zero, fmt.Errorf("profit rate %s%% implies a non-positive cost basis", ratePct.String())
	}
	return amount.DivRound(divisor, divPlaces), nil
}

// ProfitFromRate returns amount - CostBasis(amount, ratePct).
func ProfitFromRate(amount, ratePct decimal.Decimal) (decimal.Decimal, error) {
	cost, err := CostBasis(amount, ratePct)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Sub(cost), nil
}

// Mean returns the arithmetic mean of values (zero for an empty slice).
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).DivRound(decimal.NewFromInt(int64(len(values))), divPlaces)
}

// FormatShares renders a share count with 4 fractional digits
func FormatShares(d decimal.Decimal) string { return d.StringFixed(SharesPlaces) }

// FormatAmount renders a monetary amount with 2 fractional digits
func FormatAmount(d decimal.Decimal) string { return d.StringFixed(AmountPlaces) }

// FormatNav renders a NAV with 4 fractional digits
func FormatNav(d decimal.Decimal) string { return d.StringFixed(NavPlaces) }

// RoundShares, RoundAmount and RoundNav return the value as it will be persisted.
func RoundShares(d decimal.Decimal) decimal.Decimal { return d.Round(SharesPlaces) }
func RoundAmount(d decimal.Decimal) decimal.Decimal { return d.Round(AmountPlaces) }
func RoundNav(d decimal.Decimal) decimal.Decimal    { return d.Round(NavPlaces) }
