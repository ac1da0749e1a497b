package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/fundwatch/internal/clients/strategy"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/rs/zerolog"
)

// HoldingReader is the read side of the holdings store the runner needs
type HoldingReader interface {
	Get(ctx context.Context, code string) (*holdings.Holding, error)
	List(ctx context.Context) ([]holdings.Holding, error)
}

// Service runs strategies against holdings and stores the signals.
// A run replaces the signals already produced today for the funds it covers.
type Service struct {
	repo     *Repository
	holdings HoldingReader
	fetcher  strategy.Fetcher
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates a new strategies service
func NewService(repo *Repository, holdingsRepo HoldingReader, fetcher strategy.Fetcher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		holdings: holdingsRepo,
		fetcher:  fetcher,
		now:      time.Now,
		log:      log.With().Str("service", "strategies").Logger(),
	}
}

// RunForAllHoldings runs every strategy for every holding after clearing
// today's signals. Each (fund, strategy) failure is counted, never returned.
func (s *Service) RunForAllHoldings(ctx context.Context) (RunResult, error) {
	if err := s.checkConfigured(); err != nil {
		return RunResult{}, err
	}

	deleted, err := s.repo.DeleteSince(ctx, s.startOfDay())
	if err != nil {
		return RunResult{}, err
	}
	s.log.Debug().Int64("deleted", deleted).Msg("Cleared today's signals")

	list, err := s.holdings.List(ctx)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult
	for i := range list {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		s.runStrategies(ctx, &list[i], &result)
	}

	s.log.Info().
		Int("funds", len(list)).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("Strategy run complete")

	return result, nil
}

// RunForFund runs every strategy for one holding after clearing its signals
// from today.
func (s *Service) RunForFund(ctx context.Context, code string) (RunResult, error) {
	if err := s.checkConfigured(); err != nil {
		return RunResult{}, err
	}

	h, err := s.holdings.Get(ctx, code)
	if err != nil {
		return RunResult{}, err
	}
	if h == nil {
		return RunResult{}, domain.ErrNotFound(code)
	}

	if _, err := s.repo.DeleteForFundSince(ctx, code, s.startOfDay()); err != nil {
		return RunResult{}, err
	}

	var result RunResult
	s.runStrategies(ctx, h, &result)

	s.log.Info().
		Str("code", code).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("Strategy run for fund complete")

	return result, nil
}

// Latest returns the newest signal per strategy for code
func (s *Service) Latest(ctx context.Context, code string) ([]StrategySignal, error) {
	return s.repo.Latest(ctx, code)
}

// PruneOlderThan drops signals older than age
func (s *Service) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-age))
}

func (s *Service) runStrategies(ctx context.Context, h *holdings.Holding, result *RunResult) {
	for _, name := range strategy.All {
		var isHolding *bool
		if strategy.NeedsHoldingStatus(name) {
			held := h.IsHolding()
			isHolding = &held
		}

		if err := s.runOne(ctx, h.Code, name, isHolding); err != nil {
			s.log.Warn().Err(err).Str("code", h.Code).Str("strategy", name).Msg("Strategy failed")
			result.Failed++
			continue
		}
		result.Success++
	}
}

func (s *Service) runOne(ctx context.Context, code, name string, isHolding *bool) error {
	signal, err := s.fetcher.FetchSignal(ctx, name, code, isHolding)
	if err != nil {
		return err
	}

	return s.repo.Insert(ctx, &StrategySignal{
		FundCode:     code,
		StrategyName: signal.StrategyName,
		Signal:       signal.Signal,
		Reason:       signal.Reason,
		LatestDate:   signal.LatestDate,
		LatestClose:  signal.LatestClose,
		Metrics:      signal.Metrics,
		CreatedAt:    s.now(),
	})
}

func (s *Service) checkConfigured() error {
	if c, ok := s.fetcher.(interface{ Configured() bool }); ok && !c.Configured() {
		return domain.WrapError(domain.KindUpstreamUnavailable, "", "strategy service unavailable", strategy.ErrNotConfigured)
	}
	return nil
}

func (s *Service) startOfDay() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// String formats the counts for CLI output
func (r RunResult) String() string {
	return fmt.Sprintf("success=%d failed=%d", r.Success, r.Failed)
}
