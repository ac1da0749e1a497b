// Package holdings maintains fund holdings and their derived valuation.
package holdings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one tracked fund position.
//
// Shares is always HoldingAmount / YesterdayNav (4dp). HoldingProfitAmount is
// derived from HoldingProfitRate and is nil when no rate is declared. The
// TodayEstimate* and PercentageChange fields are the intraday overlay and may
// be nil.
type Holding struct {
	Code                    string
	Name                    string
	Shares                  decimal.Decimal
	YesterdayNav            decimal.Decimal
	HoldingAmount           decimal.Decimal
	HoldingProfitAmount     *decimal.Decimal
	HoldingProfitRate       *decimal.Decimal
	TodayEstimateNav        *decimal.Decimal
	TodayEstimateAmount     *decimal.Decimal
	PercentageChange        *decimal.Decimal
	TodayEstimateUpdateTime *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsHolding reports whether any units are held.
func (h *Holding) IsHolding() bool {
	return h.Shares.IsPositive()
}

// EstimateOverlay is the volatile intraday part of a holding.
type EstimateOverlay struct {
	Nav              decimal.Decimal
	Amount           decimal.Decimal
	PercentageChange *decimal.Decimal
	UpdateTime       *time.Time
}

// CreateInput holds the user-supplied fields for a new holding.
type CreateInput struct {
	Code       string
	Name       string
	Amount     decimal.Decimal
	ProfitRate *decimal.Decimal
}

// UpdateInput holds the user-editable principal fields.
type UpdateInput struct {
	Amount     decimal.Decimal
	ProfitRate *decimal.Decimal
}

// ImportRow is one entry of an import file. The JSON shape is the one Export
// produces; shares may be a number or a string.
type ImportRow struct {
	Code              string           `json:"code"`
	Shares            *decimal.Decimal `json:"shares"`
	HoldingProfitRate *decimal.Decimal `json:"holdingProfitRate"`
}

// ExportRow is one entry of an export file.
type ExportRow struct {
	Code              string           `json:"code"`
	Shares            decimal.Decimal  `json:"shares"`
	HoldingProfitRate *decimal.Decimal `json:"holdingProfitRate"`
}

// ImportResult counts imported and skipped rows.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
