package eastmoney

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Estimator fetches the realtime estimate for one fund.
type Estimator interface {
	FetchRealtimeEstimate(ctx context.Context, code string) (*RealtimeEstimate, error)
}

// HistoryFetcher pages through the confirmed NAV history of one fund.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code, startDate, endDate string) (*HistoryResult, error)
}

// RealtimeEstimate is the intraday snapshot for a fund.
// EstimateNav, EstimatePercent and EstimateTime are nil when the upstream
// has no usable intraday estimate. ConfirmedNav is zero only for a
// NoEstimate answer.
type RealtimeEstimate struct {
	Code            string
	Name            string
	NavDate         string
	ConfirmedNav    decimal.Decimal
	EstimateNav     *decimal.Decimal
	EstimatePercent *decimal.Decimal
	EstimateTime    *time.Time
}

// HasEstimate reports whether an intraday estimate NAV is present.
func (e *RealtimeEstimate) HasEstimate() bool {
	return e != nil && e.EstimateNav != nil
}

// NoEstimate is the answer for a fund the upstream answered for but
// published nothing about today.
func NoEstimate(code string) *RealtimeEstimate {
	return &RealtimeEstimate{Code: code}
}

// Published reports whether the upstream returned a snapshot with a
// confirmed NAV.
func (e *RealtimeEstimate) Published() bool {
	return e != nil && e.ConfirmedNav.IsPositive()
}

// HistoryRecord is one confirmed NAV row as reported upstream.
// Values are kept verbatim; validation happens when merging.
type HistoryRecord struct {
	Date          string `json:"date"`
	Nav           string `json:"nav"`
	GrowthPercent string `json:"growth_percent,omitempty"`
}

// HistoryResult is the outcome of a paged history fetch.
// Records are descending by date. When Complete is false, Err holds the
// reason paging stopped early and Records holds every page fetched before it.
type HistoryResult struct {
	Records  []HistoryRecord
	Complete bool
	Pages    int
	Err      error
}

// realtimePayload is the JSON object inside the jsonpgz(...) wrapper.
// It is also the cached form of an estimate.
type realtimePayload struct {
	FundCode        string `json:"fundcode" msgpack:"fundcode"`
	Name            string `json:"name" msgpack:"name"`
	NavDate         string `json:"jzrq" msgpack:"jzrq"`
	ConfirmedNav    string `json:"dwjz" msgpack:"dwjz"`
	EstimateNav     string `json:"gsz" msgpack:"gsz"`
	EstimatePercent string `json:"gszzl" msgpack:"gszzl"`
	EstimateTime    string `json:"gztime" msgpack:"gztime"`
}

type historyRow struct {
	Date          string `json:"FSRQ"`
	Nav           string `json:"DWJZ"`
	GrowthPercent string `json:"JZZZL"`
}

type historyResponse struct {
	Data *struct {
		Rows []historyRow `json:"LSJZList"`
	} `json:"Data"`
	ErrCode    int    `json:"ErrCode"`
	ErrMsg     string `json:"ErrMsg"`
	TotalCount int    `json:"TotalCount"`
}

type historyPage struct {
	records    []HistoryRecord
	totalCount int
}
