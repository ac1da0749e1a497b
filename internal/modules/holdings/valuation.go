package holdings

import (
	"time"

	"github.com/aristath/fundwatch/internal/money"
	"github.com/shopspring/decimal"
)

// Valuation is the principal part of a holding derived from an amount, a NAV
// and an optional declared profit rate, rounded as persisted.
type Valuation struct {
	Shares       decimal.Decimal
	Amount       decimal.Decimal
	ProfitAmount *decimal.Decimal
	ProfitRate   *decimal.Decimal
}

// ValueFromAmount derives shares from an invested amount at nav.
func ValueFromAmount(amount, nav decimal.Decimal, rate *decimal.Decimal) (Valuation, error) {
	shares, err := money.Shares(amount, nav)
	if err != nil {
		return Valuation{}, err
	}

	v := Valuation{
		Shares:     money.RoundShares(shares),
		Amount:     money.RoundAmount(amount),
		ProfitRate: rate,
	}
	if v.ProfitAmount, err = profitFor(amount, rate); err != nil {
		return Valuation{}, err
	}
	return v, nil
}

// ValueFromShares derives the amount from a known share count at nav.
func ValueFromShares(shares, nav decimal.Decimal, rate *decimal.Decimal) (Valuation, error) {
	amount := money.Amount(shares, nav)

	v := Valuation{
		Shares:     money.RoundShares(shares),
		Amount:     money.RoundAmount(amount),
		ProfitRate: rate,
	}
	var err error
	if v.ProfitAmount, err = profitFor(amount, rate); err != nil {
		return Valuation{}, err
	}
	return v, nil
}

func profitFor(amount decimal.Decimal, rate *decimal.Decimal) (*decimal.Decimal, error) {
	if rate == nil {
		return nil, nil
	}
	profit, err := money.ProfitFromRate(amount, *rate)
	if err != nil {
		return nil, err
	}
	profit = money.RoundAmount(profit)
	return &profit, nil
}

// Overlay builds the estimate overlay for shares at an estimate NAV.
func Overlay(shares, estimateNav decimal.Decimal, pct *decimal.Decimal, at *time.Time) EstimateOverlay {
	return EstimateOverlay{
		Nav:              money.RoundNav(estimateNav),
		Amount:           money.RoundAmount(money.Amount(shares, estimateNav)),
		PercentageChange: pct,
		UpdateTime:       at,
	}
}
