package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aristath/fundwatch/internal/config"
	"github.com/aristath/fundwatch/internal/di"
	"github.com/aristath/fundwatch/pkg/logger"
	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&listCmd{},
	&exportCmd{},
	&importCmd{},
	&syncEstimatesCmd{},
	&syncHistoryCmd{},
	&historyCmd{},
	&strategiesRunCmd{},
}

// openContainer loads configuration and wires the services. Logs go to
// stderr so command output stays clean.
func openContainer(ctx context.Context) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return container, nil
}

// run opens the container, calls fn and maps its error to an exit status
func run(ctx context.Context, fn func(c *di.Container) error) subcommands.ExitStatus {
	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	if err := fn(container); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
