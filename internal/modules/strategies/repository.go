package strategies

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const signalColumns = `id, fund_code, strategy_name, signal, reason, latest_date, latest_close, metrics, created_at`

// Repository stores strategy signals in portfolio.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new strategy signal repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "strategy_signals").Logger(),
	}
}

// Insert stores a signal, assigning its ID and creation time when unset
func (r *Repository) Insert(ctx context.Context, s *StrategySignal) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	var latestDate, latestClose, metrics sql.NullString
	if s.LatestDate != "" {
		latestDate = sql.NullString{String: s.LatestDate, Valid: true}
	}
	if s.LatestClose != nil {
		latestClose = sql.NullString{String: s.LatestClose.String(), Valid: true}
	}
	if len(s.Metrics) > 0 && string(s.Metrics) != "null" {
		metrics = sql.NullString{String: string(s.Metrics), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO strategy_signals (`+signalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FundCode, s.StrategyName, s.Signal, s.Reason,
		latestDate, latestClose, metrics, s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s signal for %s: %w", s.StrategyName, s.FundCode, err)
	}
	return nil
}

// DeleteSince removes every signal created at or after since
func (r *Repository) DeleteSince(ctx context.Context, since time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM strategy_signals WHERE created_at >= ?`, since.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals: %w", err)
	}
	return res.RowsAffected()
}

// DeleteForFundSince removes the signals of one fund created at or after since
func (r *Repository) DeleteForFundSince(ctx context.Context, code string, since time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM strategy_signals WHERE fund_code = ? AND created_at >= ?`, code, since.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals for %s: %w", code, err)
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes signals created before cutoff
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM strategy_signals WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune signals: %w", err)
	}
	return res.RowsAffected()
}

// Latest returns the newest signal of each strategy for code, ordered by strategy name
func (r *Repository) Latest(ctx context.Context, code string) ([]StrategySignal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+signalColumns+` FROM strategy_signals s
		WHERE s.fund_code = ?
		  AND s.created_at = (
			SELECT MAX(created_at) FROM strategy_signals
			WHERE fund_code = s.fund_code AND strategy_name = s.strategy_name
		  )
		ORDER BY s.strategy_name, s.id
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w", code, err)
	}
	defer rows.Close()

	signals := []StrategySignal{}
	seen := make(map[string]bool)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		// two runs within the same second leave ties
		if seen[s.StrategyName] {
			continue
		}
		seen[s.StrategyName] = true
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}

// Count returns the number of stored signals for code (all funds when empty)
func (r *Repository) Count(ctx context.Context, code string) (int, error) {
	query := `SELECT COUNT(*) FROM strategy_signals`
	var args []interface{}
	if code != "" {
		query += ` WHERE fund_code = ?`
		args = append(args, code)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return n, nil
}

func scanSignal(rows *sql.Rows) (StrategySignal, error) {
	var (
		s                                StrategySignal
		latestDate, latestClose, metrics sql.NullString
		createdAt                        int64
	)
	if err := rows.Scan(&s.ID, &s.FundCode, &s.StrategyName, &s.Signal, &s.Reason,
		&latestDate, &latestClose, &metrics, &createdAt); err != nil {
		return s, fmt.Errorf("failed to scan signal: %w", err)
	}

	s.LatestDate = latestDate.String
	if latestClose.Valid {
		if d, err := decimal.NewFromString(latestClose.String); err == nil {
			s.LatestClose = &d
		}
	}
	if metrics.Valid {
		s.Metrics = json.RawMessage(metrics.String)
	}
	s.CreatedAt = time.Unix(createdAt, 0)
	return s, nil
}
