// Package charts serves NAV series for charting: moving averages, indicator
// snapshots and aggregated sparklines.
package charts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/aristath/fundwatch/pkg/formulas"
	"github.com/rs/zerolog"
)

// Indicator parameters
const (
	RSIPeriod      = 14
	BollingerLen   = 20
	BollingerMult  = 2.0
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignal     = 9
	VolatilityDays = 60
)

// HistoryReader reads a stored NAV series, newest first
type HistoryReader interface {
	List(ctx context.Context, code, from, to string) ([]navhistory.Record, error)
}

// CodeLister lists the funds currently held
type CodeLister interface {
	Codes(ctx context.Context) ([]string, error)
}

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD, YYYY-W## or YYYY-MM
	Value float64 `json:"value"` // NAV
}

// Indicators is a technical snapshot of the latest point of a NAV series.
// Fields are nil when the series is too short for them.
type Indicators struct {
	Code       string                   `json:"code"`
	Points     int                      `json:"points"`
	LatestDate string                   `json:"latest_date,omitempty"`
	LatestNav  *float64                 `json:"latest_nav,omitempty"`
	RSI        *float64                 `json:"rsi"`
	Bollinger  *formulas.BollingerBands `json:"bollinger"`
	MACD       *formulas.MACD           `json:"macd"`
	Volatility *float64                 `json:"volatility"`
	Drawdown   float64                  `json:"max_drawdown"`
}

// Service provides chart data operations
type Service struct {
	history  HistoryReader
	holdings CodeLister
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a new charts service
func NewService(history HistoryReader, holdings CodeLister, log zerolog.Logger) *Service {
	return &Service{
		history:  history,
		holdings: holdings,
		now:      time.Now,
		log:      log.With().Str("service", "charts").Logger(),
	}
}

// HistoryWithMA returns the stored series for code in [from, to] ascending by
// date, each point carrying the requested trailing moving averages.
func (s *Service) HistoryWithMA(ctx context.Context, code, from, to string, windows []int) ([]formulas.MAPoint, error) {
	if code == "" {
		return nil, domain.NewError(domain.KindInvalidInput, code, "fund code is required")
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(navhistory.DateLayout, d); err != nil {
			return nil, domain.NewError(domain.KindInvalidInput, code, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d))
		}
	}

	records, err := s.history.List(ctx, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", code, err)
	}

	return formulas.WithMovingAverages(toPoints(records), windows), nil
}

// GetIndicators computes RSI, Bollinger Bands, MACD, volatility and max
// drawdown over the full stored series of code.
func (s *Service) GetIndicators(ctx context.Context, code string) (*Indicators, error) {
	records, err := s.history.List(ctx, code, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", code, err)
	}

	navs := ascendingFloats(records)
	result := &Indicators{
		Code:      code,
		Points:    len(navs),
		RSI:       formulas.CalculateRSI(navs, RSIPeriod),
		Bollinger: formulas.CalculateBollingerBands(navs, BollingerLen, BollingerMult),
		MACD:      formulas.CalculateMACD(navs, MACDFast, MACDSlow, MACDSignal),
		Drawdown:  formulas.MaxDrawdown(navs),
	}
	if len(records) > 0 {
		result.LatestDate = records[0].NavDate
		latest := navs[len(navs)-1]
		result.LatestNav = &latest
	}

	window := navs
	if len(window) > VolatilityDays+1 {
		window = window[len(window)-VolatilityDays-1:]
	}
	if returns := formulas.CalculateReturns(window); len(returns) >= 2 {
		vol := formulas.AnnualizedVolatility(returns)
		result.Volatility = &vol
	}

	return result, nil
}

// GetSparklinesAggregated returns per-holding NAV sparklines: weekly averages
// over 1Y or monthly averages over 5Y.
func (s *Service) GetSparklinesAggregated(ctx context.Context, period string) (map[string][]ChartDataPoint, error) {
	var startDate string
	var groupBy string

	now := s.now()
	switch period {
	case "1Y":
		startDate = now.AddDate(-1, 0, 0).Format(navhistory.DateLayout)
		groupBy = "week"
	case "5Y":
		startDate = now.AddDate(-5, 0, 0).Format(navhistory.DateLayout)
		groupBy = "month"
	default:
		return nil, domain.NewError(domain.KindInvalidInput, "", fmt.Sprintf("invalid period: %s (must be 1Y or 5Y)", period))
	}

	codes, err := s.holdings.Codes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for sparklines: %w", err)
	}

	result := make(map[string][]ChartDataPoint)
	for _, code := range codes {
		records, err := s.history.List(ctx, code, startDate, "")
		if err != nil {
			s.log.Debug().Err(err).Str("code", code).Msg("Failed to load history for sparkline")
			continue
		}
		if prices := aggregate(records, groupBy); len(prices) > 0 {
			result[code] = prices
		}
	}

	return result, nil
}

// aggregate averages NAVs per ISO week or calendar month, ascending by period
func aggregate(records []navhistory.Record, groupBy string) []ChartDataPoint {
	buckets := make(map[string][]float64)
	for _, rec := range records {
		var period string
		if groupBy == "week" {
			t, err := time.Parse(navhistory.DateLayout, rec.NavDate)
			if err != nil {
				continue
			}
			year, week := t.ISOWeek()
			period = fmt.Sprintf("%d-W%02d", year, week)
		} else {
			if len(rec.NavDate) < 7 {
				continue
			}
			period = rec.NavDate[:7]
		}
		buckets[period] = append(buckets[period], money.Float(rec.Nav))
	}

	periods := make([]string, 0, len(buckets))
	for period := range buckets {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	prices := make([]ChartDataPoint, 0, len(periods))
	for _, period := range periods {
		values := buckets[period]
		var sum float64
		for _, v := range values {
			sum += v
		}
		prices = append(prices, ChartDataPoint{Time: period, Value: sum / float64(len(values))})
	}
	return prices
}

// StartDateForRange converts a range string (1M, 3M, 6M, 1Y, 5Y, 10Y, all)
// into an inclusive start date relative to now. Unknown ranges mean unbounded.
func StartDateForRange(rangeStr string, now time.Time) string {
	var start time.Time
	switch rangeStr {
	case "1M":
		start = now.AddDate(0, -1, 0)
	case "3M":
		start = now.AddDate(0, -3, 0)
	case "6M":
		start = now.AddDate(0, -6, 0)
	case "1Y":
		start = now.AddDate(-1, 0, 0)
	case "5Y":
		start = now.AddDate(-5, 0, 0)
	case "10Y":
		start = now.AddDate(-10, 0, 0)
	default:
		return ""
	}
	return start.Format(navhistory.DateLayout)
}

func toPoints(records []navhistory.Record) []formulas.Point {
	points := make([]formulas.Point, len(records))
	for i, rec := range records {
		points[i] = formulas.Point{Date: rec.NavDate, Nav: rec.Nav}
	}
	return points
}

// ascendingFloats turns a newest-first series into oldest-first floats
func ascendingFloats(records []navhistory.Record) []float64 {
	navs := make([]float64, len(records))
	for i, rec := range records {
		navs[len(records)-1-i] = money.Float(rec.Nav)
	}
	return navs
}
