package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aristath/fundwatch/internal/di"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/google/subcommands"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list holdings with their valuation" }
func (*listCmd) Usage() string {
	return `list:
  Print every holding with shares, confirmed NAV, amount and today's estimate.
`
}
func (*listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(container *di.Container) error {
		list, err := container.HoldingsService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list holdings: %w", err)
		}
		return writeHoldings(os.Stdout, list)
	})
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export holdings as JSON" }
func (*exportCmd) Usage() string {
	return `export [-o file]:
  Write holdings as a JSON array of {code, shares, holdingProfitRate}.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(container *di.Container) error {
		rows, err := container.HoldingsService.Export(ctx)
		if err != nil {
			return fmt.Errorf("failed to export holdings: %w", err)
		}

		var w io.Writer = os.Stdout
		if c.output != "" {
			file, err := os.Create(c.output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", c.output, err)
			}
			defer file.Close()
			w = file
		}
		return writeExport(w, rows)
	})
}

func writeExport(w io.Writer, rows []holdings.ExportRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

type importCmd struct {
	overwrite bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import holdings from a JSON file" }
func (*importCmd) Usage() string {
	return `import [-overwrite] <file.json>:
  Import holdings previously written by export. Existing codes are skipped
  unless -overwrite is given.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.overwrite, "overwrite", false, "replace holdings that already exist")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	rows, err := readImport(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return run(ctx, func(container *di.Container) error {
		result, err := container.HoldingsService.Import(ctx, rows, c.overwrite)
		if err != nil {
			return fmt.Errorf("failed to import holdings: %w", err)
		}
		fmt.Printf("imported=%d skipped=%d\n", result.Imported, result.Skipped)
		return nil
	})
}

func readImport(r io.Reader) ([]holdings.ImportRow, error) {
	var rows []holdings.ImportRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	return rows, nil
}
