package scheduler

import (
	"context"
	"time"

	"github.com/aristath/fundwatch/internal/modules/strategies"
	fundsync "github.com/aristath/fundwatch/internal/modules/sync"
)

// EstimateSyncer refreshes realtime estimates for all holdings
type EstimateSyncer interface {
	SyncAllHoldingsEstimates(ctx context.Context) (fundsync.Result, error)
}

// HistorySyncer pulls confirmed NAV history for all holdings
type HistorySyncer interface {
	SyncAllHoldingsHistory(ctx context.Context) (fundsync.Result, error)
}

// StrategyRunner runs strategies and prunes stored signals
type StrategyRunner interface {
	RunForAllHoldings(ctx context.Context) (strategies.RunResult, error)
	PruneOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// MarketClock reports whether the fund market is in session
type MarketClock interface {
	IsMarketOpen(t time.Time) bool
}
