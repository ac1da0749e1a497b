// Package navhistory stores confirmed NAV series and merges upstream batches into them.
package navhistory

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for nav_date.
const DateLayout = "2006-01-02"

// Record is one confirmed NAV for a fund on a calendar date.
// (Code, NavDate) is unique; a recorded NAV is never overwritten.
type Record struct {
	Code          string           `json:"code"`
	NavDate       string           `json:"nav_date"`
	Nav           decimal.Decimal  `json:"nav"`
	GrowthPercent *decimal.Decimal `json:"growth_percent,omitempty"`
}

// MergeResult is the outcome of merging a fetched batch into a local series.
type MergeResult struct {
	// Accepted holds previously absent records, newest first
	Accepted      []Record
	AcceptedCount int
	// Rejected counts rows dropped for a bad date or non-positive NAV
	Rejected int
}

// Latest returns the chronologically latest accepted record, or nil.
func (m MergeResult) Latest() *Record {
	if len(m.Accepted) == 0 {
		return nil
	}
	return &m.Accepted[0]
}
