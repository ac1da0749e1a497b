package holdings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/events"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/rs/zerolog"
)

// EstimateRefresher refreshes the estimate overlay of one holding.
// Implemented by the sync service; defined here to avoid an import cycle.
type EstimateRefresher interface {
	SyncSingleFundEstimate(ctx context.Context, code string) error
}

// Service applies holding mutations and keeps the derived fields consistent.
type Service struct {
	repo      *Repository
	estimator eastmoney.Estimator
	refresher EstimateRefresher
	events    *events.Bus
	log       zerolog.Logger
}

// NewService creates a new holdings service
func NewService(repo *Repository, estimator eastmoney.Estimator, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		estimator: estimator,
		log:       log.With().Str("service", "holdings").Logger(),
	}
}

// SetEstimateRefresher wires the hook Update calls after a successful write.
func (s *Service) SetEstimateRefresher(r EstimateRefresher) {
	s.refresher = r
}

// SetEventBus wires the bus that receives holding change notifications.
func (s *Service) SetEventBus(bus *events.Bus) {
	s.events = bus
}

func (s *Service) emitChanged(action, code string) {
	data := map[string]interface{}{"action": action}
	if code != "" {
		data["code"] = code
	}
	s.events.Emit(events.HoldingsChanged, "holdings", data)
}

// Get returns the holding for code.
func (s *Service) Get(ctx context.Context, code string) (*Holding, error) {
	h, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.ErrNotFound(code)
	}
	return h, nil
}

// List returns all holdings.
func (s *Service) List(ctx context.Context) ([]Holding, error) {
	return s.repo.List(ctx)
}

// Create adds a holding for a fund valued at its latest confirmed NAV.
// The estimate overlay is filled from the same upstream snapshot.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Holding, error) {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "", "fund code is required")
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewError(domain.KindInvalidInput, in.Code, "holding amount must be positive")
	}

	exists, err := s.repo.Exists(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyExists(in.Code)
	}

	est, err := s.confirmedEstimate(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	nav := money.RoundNav(est.ConfirmedNav)
	v, err := ValueFromAmount(in.Amount, nav, in.ProfitRate)
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidInput, in.Code, "cannot value holding", err)
	}

	h := &Holding{
		Code:                in.Code,
		Name:                strings.TrimSpace(in.Name),
		Shares:              v.Shares,
		YesterdayNav:        nav,
		HoldingAmount:       v.Amount,
		HoldingProfitAmount: v.ProfitAmount,
		HoldingProfitRate:   v.ProfitRate,
	}
	if h.Name == "" {
		h.Name = est.Name
	}
	if est.HasEstimate() {
		o := Overlay(v.Shares, *est.EstimateNav, est.EstimatePercent, est.EstimateTime)
		h.TodayEstimateNav = &o.Nav
		h.TodayEstimateAmount = &o.Amount
		h.PercentageChange = o.PercentageChange
		h.TodayEstimateUpdateTime = o.UpdateTime
	}

	if err := s.repo.Insert(ctx, h); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("code", h.Code).
		Str("shares", v.Shares.String()).
		Str("nav", nav.String()).
		Msg("Created holding")

	s.emitChanged("created", h.Code)
	return s.Get(ctx, h.Code)
}

// Update recomputes shares and profit from a new amount and rate using the
// stored YesterdayNav; no NAV is fetched. The stored NAV is only as fresh as
// the last history sync, so callers wanting the newest basis should run
// SyncSingleFundHistory first. After the write the estimate overlay is
// refreshed; a refresh failure is logged, not returned.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (*Holding, error) {
	h, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewError(domain.KindInvalidInput, code, "holding amount must be positive")
	}
	if !h.YesterdayNav.IsPositive() {
		return nil, domain.NewError(domain.KindInvalidState, code,
			fmt.Sprintf("stored nav %s is not positive, cannot recompute shares", h.YesterdayNav.String()))
	}

	v, err := ValueFromAmount(in.Amount, h.YesterdayNav, in.ProfitRate)
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidInput, code, "cannot value holding", err)
	}

	if err := s.repo.UpdateValuation(ctx, code, v); err != nil {
		return nil, err
	}

	if s.refresher != nil {
		if err := s.refresher.SyncSingleFundEstimate(ctx, code); err != nil {
			s.log.Warn().Err(err).Str("code", code).Msg("Failed to refresh estimate after update")
		}
	}

	s.emitChanged("updated", code)
	return s.Get(ctx, code)
}

// Delete removes the holding and its NAV history in one transaction,
// history first.
func (s *Service) Delete(ctx context.Context, code string) error {
	exists, err := s.repo.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound(code)
	}

	var historyDeleted int64
	err = database.WithTransactionContext(ctx, s.repo.DB(), func(tx *sql.Tx) error {
		var err error
		if historyDeleted, err = navhistory.DeleteByCodeTx(ctx, tx, code); err != nil {
			return err
		}
		_, err = DeleteTx(ctx, tx, code)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", code, err)
	}

	s.log.Info().Str("code", code).Int64("history_deleted", historyDeleted).Msg("Deleted holding")
	s.emitChanged("deleted", code)
	return nil
}

// Import adds holdings from known share counts valued at the current confirmed
// NAV. With overwrite, all holdings and history are removed first. Rows are
// skipped (never failed) when the code or shares are missing, the code exists
// and overwrite is off, or no positive confirmed NAV is available.
func (s *Service) Import(ctx context.Context, rows []ImportRow, overwrite bool) (ImportResult, error) {
	var result ImportResult

	if overwrite {
		err := database.WithTransactionContext(ctx, s.repo.DB(), func(tx *sql.Tx) error {
			if _, err := navhistory.DeleteAllTx(ctx, tx); err != nil {
				return err
			}
			_, err := DeleteAllTx(ctx, tx)
			return err
		})
		if err != nil {
			return result, fmt.Errorf("failed to reset holdings before import: %w", err)
		}
		s.log.Info().Msg("Cleared holdings and history for overwrite import")
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.importRow(ctx, row, overwrite) {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	s.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Bool("overwrite", overwrite).
		Msg("Import completed")

	if result.Imported > 0 || overwrite {
		s.emitChanged("imported", "")
	}
	return result, nil
}

func (s *Service) importRow(ctx context.Context, row ImportRow, overwrite bool) bool {
	code := strings.TrimSpace(row.Code)
	if code == "" || row.Shares == nil {
		s.log.Debug().Str("code", code).Msg("Skipping import row without code or shares")
		return false
	}

	if !overwrite {
		exists, err := s.repo.Exists(ctx, code)
		if err != nil {
			s.log.Warn().Err(err).Str("code", code).Msg("Skipping import row")
			return false
		}
		if exists {
			s.log.Debug().Str("code", code).Msg("Skipping existing holding")
			return false
		}
	}

	est, err := s.confirmedEstimate(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("Skipping import row")
		return false
	}

	nav := money.RoundNav(est.ConfirmedNav)
	v, err := ValueFromShares(*row.Shares, nav, row.HoldingProfitRate)
	if err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("Skipping import row")
		return false
	}

	h := &Holding{
		Code:                code,
		Name:                est.Name,
		Shares:              v.Shares,
		YesterdayNav:        nav,
		HoldingAmount:       v.Amount,
		HoldingProfitAmount: v.ProfitAmount,
		HoldingProfitRate:   v.ProfitRate,
	}
	if err := s.repo.Insert(ctx, h); err != nil {
		s.log.Warn().Err(err).Str("code", code).Msg("Skipping import row")
		return false
	}
	return true
}

// Export returns code, shares and declared profit rate for every holding.
func (s *Service) Export(ctx context.Context) ([]ExportRow, error) {
	holdings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, ExportRow{
			Code:              h.Code,
			Shares:            h.Shares,
			HoldingProfitRate: h.HoldingProfitRate,
		})
	}
	return rows, nil
}

// confirmedEstimate fetches the realtime snapshot and requires a positive
// confirmed NAV.
func (s *Service) confirmedEstimate(ctx context.Context, code string) (*eastmoney.RealtimeEstimate, error) {
	est, err := s.estimator.FetchRealtimeEstimate(ctx, code)
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, domain.NewError(domain.KindUpstreamUnavailable, code, "no realtime data available")
	}
	if !est.Published() {
		return nil, domain.NewError(domain.KindUpstreamUnavailable, code,
			fmt.Sprintf("confirmed nav %s is not positive", est.ConfirmedNav.String()))
	}
	return est, nil
}
