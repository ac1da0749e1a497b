package navhistory

import (
	"sort"
	"strings"
	"time"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/money"
)

// Merge returns the records in fetched that are not already in local.
// Rows with an unparsable date or a NAV that is not strictly positive are
// dropped, and a date repeated within the batch is kept once (first wins).
// Merge is pure: merging the same batch into a series that already holds it
// accepts nothing.
func Merge(code string, local []Record, fetched []eastmoney.HistoryRecord) MergeResult {
	seen := make(map[string]struct{}, len(local)+len(fetched))
	for _, rec := range local {
		seen[rec.NavDate] = struct{}{}
	}

	result := MergeResult{Accepted: make([]Record, 0, len(fetched))}
	for _, row := range fetched {
		rec, ok := toRecord(code, row)
		if !ok {
			result.Rejected++
			continue
		}
		if _, dup := seen[rec.NavDate]; dup {
			continue
		}
		seen[rec.NavDate] = struct{}{}
		result.Accepted = append(result.Accepted, rec)
	}

	sort.Slice(result.Accepted, func(i, j int) bool {
		return result.Accepted[i].NavDate > result.Accepted[j].NavDate
	})
	result.AcceptedCount = len(result.Accepted)

	return result
}

func toRecord(code string, row eastmoney.HistoryRecord) (Record, bool) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(row.Date))
	if err != nil {
		return Record{}, false
	}

	nav, err := money.Parse(row.Nav)
	if err != nil || !nav.IsPositive() {
		return Record{}, false
	}

	rec := Record{
		Code:    code,
		NavDate: date.Format(DateLayout),
		Nav:     money.RoundNav(nav),
	}
	if growth, err := money.ParseOptional(row.GrowthPercent); err == nil {
		rec.GrowthPercent = growth
	}
	return rec, true
}

// NextStartDate is the first date to request given the latest stored record:
// the day after it, or "" (full history) when nothing is stored.
func NextStartDate(latest *Record) string {
	if latest == nil {
		return ""
	}
	date, err := time.Parse(DateLayout, latest.NavDate)
	if err != nil {
		return ""
	}
	return date.AddDate(0, 0, 1).Format(DateLayout)
}
