// Package cleanup provides data cleanup and maintenance functionality.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HoldingCodes lists the codes currently held
type HoldingCodes interface {
	Codes(ctx context.Context) ([]string, error)
}

// HistoryStore is the subset of the NAV history repository the job needs
type HistoryStore interface {
	Codes(ctx context.Context) ([]string, error)
	DeleteByCode(ctx context.Context, code string) (int64, error)
}

// HistoryCleanupJob removes NAV history for funds that are no longer held.
// Deleting a holding already removes its history in the same transaction;
// this catches anything left behind by imports or manual edits.
type HistoryCleanupJob struct {
	holdings HoldingCodes
	history  HistoryStore
	log      zerolog.Logger
}

// NewHistoryCleanupJob creates a new history cleanup job
func NewHistoryCleanupJob(holdings HoldingCodes, history HistoryStore, log zerolog.Logger) *HistoryCleanupJob {
	return &HistoryCleanupJob{
		holdings: holdings,
		history:  history,
		log:      log.With().Str("job", "history_cleanup").Logger(),
	}
}

// Run executes the cleanup job
func (j *HistoryCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	orphaned, err := j.findOrphanedCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to find orphaned codes: %w", err)
	}

	if len(orphaned) == 0 {
		j.log.Debug().Msg("No orphaned history to clean up")
		return nil
	}

	j.log.Info().Int("count", len(orphaned)).Msg("Found orphaned history")

	cleaned := 0
	errors := 0
	var rows int64
	for _, code := range orphaned {
		n, err := j.history.DeleteByCode(ctx, code)
		if err != nil {
			j.log.Error().
				Err(err).
				Str("code", code).
				Msg("Failed to cleanup orphaned history")
			errors++
			continue
		}
		cleaned++
		rows += n
	}

	j.log.Info().
		Int("cleaned", cleaned).
		Int("errors", errors).
		Int64("rows", rows).
		Msg("History cleanup completed")

	if errors > 0 && cleaned == 0 {
		return fmt.Errorf("failed to cleanup any of %d orphaned codes", errors)
	}
	return nil
}

// Name returns the job name for scheduling and logging
func (j *HistoryCleanupJob) Name() string {
	return "history_cleanup"
}

func (j *HistoryCleanupJob) findOrphanedCodes(ctx context.Context) ([]string, error) {
	held, err := j.holdings.Codes(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := j.history.Codes(ctx)
	if err != nil {
		return nil, err
	}

	heldSet := make(map[string]bool, len(held))
	for _, code := range held {
		heldSet[code] = true
	}

	var orphaned []string
	for _, code := range stored {
		if !heldSet[code] {
			orphaned = append(orphaned, code)
		}
	}
	return orphaned, nil
}
