package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	fundsync "github.com/aristath/fundwatch/internal/modules/sync"
	"github.com/aristath/fundwatch/pkg/formulas"
	"github.com/shopspring/decimal"
)

// formatCNY renders an amount in yuan with thousands separators and two decimals
func formatCNY(d decimal.Decimal) string {
	cur := *money.New(0, "CNY").Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func formatOptionalCNY(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return formatCNY(*d)
}

func formatPercent(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2) + "%"
}

// writeHoldings prints a holdings table followed by totals
func writeHoldings(w io.Writer, list []holdings.Holding) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tNAME\tSHARES\tNAV\tAMOUNT\tPROFIT\tESTIMATE\tCHANGE\t")

	total := decimal.Zero
	estimated := decimal.Zero
	for _, h := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			h.Code,
			h.Name,
			h.Shares.StringFixed(4),
			h.YesterdayNav.StringFixed(4),
			formatCNY(h.HoldingAmount),
			formatOptionalCNY(h.HoldingProfitAmount),
			formatOptionalCNY(h.TodayEstimateAmount),
			formatPercent(h.PercentageChange),
		)
		total = total.Add(h.HoldingAmount)
		if h.TodayEstimateAmount != nil {
			estimated = estimated.Add(*h.TodayEstimateAmount)
		} else {
			estimated = estimated.Add(h.HoldingAmount)
		}
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t\t%s\t\t\n", formatCNY(total), formatCNY(estimated))
	return tw.Flush()
}

// writeHistory prints dates ascending with one column per MA window
func writeHistory(w io.Writer, points []formulas.MAPoint, windows []int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"DATE", "NAV"}
	for _, win := range windows {
		header = append(header, fmt.Sprintf("MA%d", win))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, p := range points {
		row := []string{p.Date, fmt.Sprintf("%.4f", p.Nav)}
		for _, win := range windows {
			if v, ok := p.MA[win]; ok {
				row = append(row, fmt.Sprintf("%.4f", v))
			} else {
				row = append(row, "-")
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

func formatResult(r fundsync.Result) string {
	s := fmt.Sprintf("total=%d success=%d failed=%d", r.Total, r.Success, r.Failed)
	if r.Skipped > 0 {
		s += fmt.Sprintf(" skipped=%d", r.Skipped)
	}
	if r.Records > 0 {
		s += fmt.Sprintf(" records=%d", r.Records)
	}
	return s
}
