// Package strategies runs external strategy analyses for held funds and
// stores the resulting signals.
package strategies

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StrategySignal is a stored strategy verdict
type StrategySignal struct {
	ID           string           `json:"id"`
	FundCode     string           `json:"fund_code"`
	StrategyName string           `json:"strategy_name"`
	Signal       string           `json:"signal"`
	Reason       string           `json:"reason"`
	LatestDate   string           `json:"latest_date,omitempty"`
	LatestClose  *decimal.Decimal `json:"latest_close,omitempty"`
	Metrics      json.RawMessage  `json:"metrics,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RunResult counts (fund, strategy) pairs that produced a stored signal
type RunResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
