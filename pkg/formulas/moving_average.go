// Package formulas holds the NAV series analytics: trailing moving averages in
// decimal arithmetic and float-based technical indicators.
package formulas

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/aristath/fundwatch/internal/money"
	"github.com/shopspring/decimal"
)

// Point is one NAV observation.
type Point struct {
	Date string
	Nav  decimal.Decimal
}

// MAPoint is a NAV observation carrying one trailing moving average per
// window that fits. MA[w] is absent when fewer than w points end here.
type MAPoint struct {
	Date string
	Nav  float64
	MA   map[int]float64
}

// MarshalJSON flattens the averages: {"date":..,"nav":..,"ma5":..}
func (p MAPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.MA)+2)
	out["date"] = p.Date
	out["nav"] = p.Nav
	for w, v := range p.MA {
		out["ma"+strconv.Itoa(w)] = v
	}
	return json.Marshal(out)
}

// WithMovingAverages sorts points ascending by date and attaches, for each
// window w, the mean of the w NAVs ending at each index i >= w-1.
// Means are computed in decimal and converted to float only in the output.
// Non-positive windows are ignored; windows longer than the series add nothing.
func WithMovingAverages(points []Point, windows []int) []MAPoint {
	series := make([]Point, len(points))
	copy(series, points)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	out := make([]MAPoint, len(series))
	for i, p := range series {
		out[i] = MAPoint{Date: p.Date, Nav: money.Float(p.Nav)}
	}

	for _, w := range windows {
		if w <= 0 || w > len(series) {
			continue
		}

		navs := make([]decimal.Decimal, len(series))
		for i, p := range series {
			navs[i] = p.Nav
		}

		for i := w - 1; i < len(series); i++ {
			if out[i].MA == nil {
				out[i].MA = make(map[int]float64, len(windows))
			}
			out[i].MA[w] = money.Float(money.Mean(navs[i-w+1 : i+1]))
		}
	}

	return out
}
