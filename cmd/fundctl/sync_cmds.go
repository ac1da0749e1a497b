package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aristath/fundwatch/internal/di"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/google/subcommands"
)

type syncEstimatesCmd struct{}

func (*syncEstimatesCmd) Name() string     { return "sync-estimates" }
func (*syncEstimatesCmd) Synopsis() string { return "refresh realtime estimates for all holdings" }
func (*syncEstimatesCmd) Usage() string {
	return `sync-estimates:
  Fetch today's estimate for every holding regardless of market hours.
`
}
func (*syncEstimatesCmd) SetFlags(f *flag.FlagSet) {}

func (c *syncEstimatesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(container *di.Container) error {
		result, err := container.SyncService.SyncAllHoldingsEstimates(ctx)
		if err != nil {
			return err
		}
		fmt.Println(formatResult(result))
		return nil
	})
}

type syncHistoryCmd struct{}

func (*syncHistoryCmd) Name() string     { return "sync-history" }
func (*syncHistoryCmd) Synopsis() string { return "sync confirmed NAV history" }
func (*syncHistoryCmd) Usage() string {
	return `sync-history [code]:
  Sync NAV history for one fund, or for every holding when no code is given.
`
}
func (*syncHistoryCmd) SetFlags(f *flag.FlagSet) {}

func (c *syncHistoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	return run(ctx, func(container *di.Container) error {
		if f.NArg() == 1 {
			code := strings.TrimSpace(f.Arg(0))
			n, err := container.SyncService.SyncSingleFundHistory(ctx, code)
			if err != nil {
				return err
			}
			fmt.Printf("%s records=%d\n", code, n)
			return nil
		}

		result, err := container.SyncService.SyncAllHoldingsHistory(ctx)
		if err != nil {
			return err
		}
		fmt.Println(formatResult(result))
		return nil
	})
}

type historyCmd struct {
	ma   string
	from string
	to   string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print NAV history with moving averages" }
func (*historyCmd) Usage() string {
	return `history [-ma 5,20] [-from YYYY-MM-DD] [-to YYYY-MM-DD] <code>:
  Print stored NAV history for a fund, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ma, "ma", "", "comma separated moving average windows")
	f.StringVar(&c.from, "from", "", "first date (inclusive)")
	f.StringVar(&c.to, "to", "", "last date (inclusive)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	windows, err := utils.ParseIntCSV(c.ma)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -ma: %v\n", err)
		return subcommands.ExitUsageError
	}

	return run(ctx, func(container *di.Container) error {
		points, err := container.ChartsService.HistoryWithMA(ctx, f.Arg(0), c.from, c.to, windows)
		if err != nil {
			return err
		}
		return writeHistory(os.Stdout, points, windows)
	})
}

type strategiesRunCmd struct{}

func (*strategiesRunCmd) Name() string     { return "strategies-run" }
func (*strategiesRunCmd) Synopsis() string { return "run strategy analysis for all holdings" }
func (*strategiesRunCmd) Usage() string {
	return `strategies-run:
  Run every strategy against every holding and store today's signals.
`
}
func (*strategiesRunCmd) SetFlags(f *flag.FlagSet) {}

func (c *strategiesRunCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(container *di.Container) error {
		result, err := container.StrategiesService.RunForAllHoldings(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil
	})
}
