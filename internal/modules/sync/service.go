// Package sync pulls realtime estimates and confirmed NAV history from the
// upstream source into holdings and the local NAV series.
package sync

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/events"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/aristath/fundwatch/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps the estimate fan-out when none is configured
const DefaultConcurrency = 8

// Result summarises a bulk sync. Failed counts funds whose request errored
// or came back unusable. Skipped counts funds the upstream answered for
// without publishing an estimate today, plus holdings deleted mid-sync.
type Result struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped,omitempty"`
	// Records is the number of NAV records accepted (history sync only)
	Records int `json:"records,omitempty"`
}

// Service orchestrates estimate and history synchronisation
type Service struct {
	holdings    *holdings.Repository
	history     *navhistory.Repository
	estimator   eastmoney.Estimator
	fetcher     eastmoney.HistoryFetcher
	concurrency int
	events      *events.Bus
	log         zerolog.Logger
}

// NewService creates a new sync service. concurrency bounds the estimate
// fan-out; 0 means one goroutine per holding.
func NewService(
	holdingsRepo *holdings.Repository,
	historyRepo *navhistory.Repository,
	estimator eastmoney.Estimator,
	fetcher eastmoney.HistoryFetcher,
	concurrency int,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdings:    holdingsRepo,
		history:     historyRepo,
		estimator:   estimator,
		fetcher:     fetcher,
		concurrency: concurrency,
		log:         log.With().Str("service", "sync").Logger(),
	}
}

// SetEventBus wires the bus that receives sync notifications.
func (s *Service) SetEventBus(bus *events.Bus) {
	s.events = bus
}

// SyncSingleFundEstimate refreshes the estimate overlay of one holding.
// A missing holding or an absent estimate is a no-op.
func (s *Service) SyncSingleFundEstimate(ctx context.Context, code string) error {
	_, err := s.syncEstimate(ctx, code)
	return err
}

type estimateOutcome int

const (
	estimateWritten estimateOutcome = iota
	estimateSkipped
	estimateFailed
)

func (s *Service) syncEstimate(ctx context.Context, code string) (estimateOutcome, error) {
	h, err := s.holdings.Get(ctx, code)
	if err != nil {
		return estimateFailed, err
	}
	if h == nil {
		return estimateSkipped, nil
	}

	est, err := s.estimator.FetchRealtimeEstimate(ctx, code)
	if err != nil {
		return estimateFailed, err
	}
	if est == nil {
		return estimateFailed, nil
	}
	if !est.HasEstimate() {
		s.log.Debug().Str("code", code).Msg("No realtime estimate published")
		return estimateSkipped, nil
	}

	overlay := holdings.Overlay(h.Shares, *est.EstimateNav, est.EstimatePercent, est.EstimateTime)
	if err := s.holdings.UpdateEstimate(ctx, code, overlay); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			// deleted while the estimate was in flight
			return estimateSkipped, nil
		}
		return estimateFailed, err
	}

	return estimateWritten, nil
}

// SyncAllHoldingsEstimates refreshes every holding's overlay concurrently,
// bounded by the configured concurrency. One fund failing never affects the
// others; a fund counts as a success only if its overlay was written.
// A request that fails or returns nothing usable counts as failed.
func (s *Service) SyncAllHoldingsEstimates(ctx context.Context) (Result, error) {
	defer utils.OperationTimer("sync_all_estimates", s.log)()

	codes, err := s.holdings.Codes(ctx)
	if err != nil {
		return Result{}, err
	}

	var success, failed, skipped atomic.Int64

	g := new(errgroup.Group)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for _, code := range codes {
		g.Go(func() error {
			outcome, err := s.syncEstimate(ctx, code)
			if err != nil {
				s.log.Warn().Err(err).Str("code", code).Msg("Estimate sync failed")
			}
			switch outcome {
			case estimateWritten:
				success.Add(1)
			case estimateSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := Result{
		Total:   len(codes),
		Success: int(success.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}

	s.log.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Estimate sync complete")

	if result.Success > 0 {
		s.events.Emit(events.EstimatesUpdated, "sync", map[string]interface{}{
			"total":   result.Total,
			"success": result.Success,
			"failed":  result.Failed,
			"skipped": result.Skipped,
		})
	}

	return result, nil
}

// SyncSingleFundHistory fetches NAV history newer than the latest local
// record, merges it and, when anything was accepted, revalues the holding at
// the newest confirmed NAV keeping shares unchanged. A partial fetch still
// merges whatever arrived. Returns the number of accepted records.
func (s *Service) SyncSingleFundHistory(ctx context.Context, code string) (int, error) {
	h, err := s.holdings.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, domain.ErrNotFound(code)
	}

	latest, err := s.history.Latest(ctx, code)
	if err != nil {
		return 0, err
	}
	startDate := navhistory.NextStartDate(latest)

	fetched, err := s.fetcher.FetchHistory(ctx, code, startDate, "")
	if err != nil {
		return 0, err
	}
	if fetched.Err != nil {
		if len(fetched.Records) == 0 {
			return 0, fetched.Err
		}
		s.log.Warn().
			Err(fetched.Err).
			Str("code", code).
			Int("records", len(fetched.Records)).
			Int("pages", fetched.Pages).
			Msg("History fetch incomplete, merging partial result")
	}

	if len(fetched.Records) == 0 {
		s.log.Debug().Str("code", code).Str("start_date", startDate).Msg("No new NAV history")
		return 0, nil
	}

	local, err := s.history.List(ctx, code, oldestDate(fetched.Records), "")
	if err != nil {
		return 0, err
	}

	merged := navhistory.Merge(code, local, fetched.Records)
	if merged.Rejected > 0 {
		s.log.Debug().Str("code", code).Int("rejected", merged.Rejected).Msg("Dropped invalid history rows")
	}
	if merged.AcceptedCount == 0 {
		return 0, nil
	}

	inserted, err := s.history.InsertBatch(ctx, merged.Accepted)
	if err != nil {
		return 0, err
	}

	newest := merged.Latest()
	if latest == nil || newest.NavDate > latest.NavDate {
		v, err := holdings.ValueFromShares(h.Shares, newest.Nav, h.HoldingProfitRate)
		if err != nil {
			return 0, domain.WrapError(domain.KindInvalidState, code, "cannot revalue holding", err)
		}
		if err := s.holdings.UpdateNav(ctx, code, newest.Nav, v); err != nil {
			return 0, err
		}
	}

	s.log.Info().
		Str("code", code).
		Str("start_date", startDate).
		Int("accepted", merged.AcceptedCount).
		Int("inserted", inserted).
		Str("latest_date", newest.NavDate).
		Msg("Synced NAV history")

	s.events.Emit(events.HistorySynced, "sync", map[string]interface{}{
		"code":        code,
		"accepted":    merged.AcceptedCount,
		"latest_date": newest.NavDate,
	})

	return merged.AcceptedCount, nil
}

// SyncAllHoldingsHistory syncs history for every holding one at a time, which
// keeps the upstream request rate bounded by the paging delay.
func (s *Service) SyncAllHoldingsHistory(ctx context.Context) (Result, error) {
	defer utils.OperationTimer("sync_all_history", s.log)()

	codes, err := s.holdings.Codes(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Total: len(codes)}
	for _, code := range codes {
		if ctx.Err() != nil {
			result.Failed += result.Total - result.Success - result.Failed
			break
		}

		accepted, err := s.SyncSingleFundHistory(ctx, code)
		if err != nil {
			s.log.Warn().Err(err).Str("code", code).Msg("History sync failed")
			result.Failed++
			continue
		}
		result.Success++
		result.Records += accepted
	}

	s.log.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("records", result.Records).
		Msg("History sync complete")

	return result, ctx.Err()
}

// oldestDate returns the earliest date in a fetched batch, bounding the local
// window the batch has to be checked against.
func oldestDate(records []eastmoney.HistoryRecord) string {
	oldest := ""
	for _, rec := range records {
		date := strings.TrimSpace(rec.Date)
		if date != "" && (oldest == "" || date < oldest) {
			oldest = date
		}
	}
	return oldest
}
