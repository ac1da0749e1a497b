package testing

import (
	"strconv"
	"time"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/shopspring/decimal"
)

// NewEstimateFixture builds a realtime estimate. An empty estimateNav leaves
// the intraday overlay absent.
func NewEstimateFixture(code, name, confirmedNav, estimateNav string) *eastmoney.RealtimeEstimate {
	est := &eastmoney.RealtimeEstimate{
		Code:         code,
		Name:         name,
		NavDate:      "2024-01-04",
		ConfirmedNav: decimal.RequireFromString(confirmedNav),
	}
	if estimateNav != "" {
		nav := decimal.RequireFromString(estimateNav)
		pct := nav.Sub(est.ConfirmedNav).Div(est.ConfirmedNav).Mul(decimal.NewFromInt(100)).Round(2)
		at := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
		est.EstimateNav = &nav
		est.EstimatePercent = &pct
		est.EstimateTime = &at
	}
	return est
}

// NewHistoryFixture builds upstream history rows, newest first, one per
// calendar day ending on latest. navs are given oldest first.
func NewHistoryFixture(latest string, navs ...string) []eastmoney.HistoryRecord {
	end, err := time.Parse("2006-01-02", latest)
	if err != nil {
		panic(err)
	}

	records := make([]eastmoney.HistoryRecord, 0, len(navs))
	for i := len(navs) - 1; i >= 0; i-- {
		offset := len(navs) - 1 - i
		records = append(records, eastmoney.HistoryRecord{
			Date: end.AddDate(0, 0, -offset).Format("2006-01-02"),
			Nav:  navs[i],
		})
	}
	return records
}

// NewFundCodes returns n distinct six-digit fund codes
func NewFundCodes(n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = strconv.Itoa(110011 + i)
	}
	return codes
}
