package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const strategyRunTimeout = 30 * time.Minute

// StrategyRunJob runs all strategies for all holdings, then drops signals
// older than the retention window.
type StrategyRunJob struct {
	runner    StrategyRunner
	retention time.Duration
	log       zerolog.Logger
}

// NewStrategyRunJob creates the strategy job. retention <= 0 keeps every signal.
func NewStrategyRunJob(runner StrategyRunner, retention time.Duration, log zerolog.Logger) *StrategyRunJob {
	return &StrategyRunJob{
		runner:    runner,
		retention: retention,
		log:       log.With().Str("job", "strategy_run").Logger(),
	}
}

// Name returns the job name
func (j *StrategyRunJob) Name() string {
	return "strategy_run"
}

// Run executes the strategy run
func (j *StrategyRunJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), strategyRunTimeout)
	defer cancel()

	result, err := j.runner.RunForAllHoldings(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Int("success", result.Success).Int("failed", result.Failed).Msg("Strategy run finished")

	if j.retention <= 0 {
		return nil
	}
	pruned, err := j.runner.PruneOlderThan(ctx, j.retention)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune old signals")
		return nil
	}
	if pruned > 0 {
		j.log.Info().Int64("pruned", pruned).Msg("Pruned old signals")
	}
	return nil
}
