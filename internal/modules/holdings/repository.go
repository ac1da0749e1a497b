package holdings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const holdingColumns = `code, name, shares, yesterday_nav, holding_amount,
	holding_profit_amount, holding_profit_rate, today_estimate_nav,
	today_estimate_amount, percentage_change, today_estimate_update_time,
	created_at, updated_at`

// Repository handles holdings database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holdings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// DB returns the underlying connection for cross-table transactions
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Get returns the holding for code, or nil if none exists
func (r *Repository) Get(ctx context.Context, code string) (*Holding, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE code = ?`, code)

	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s: %w", code, err)
	}
	return h, nil
}

// Exists reports whether a holding for code exists
func (r *Repository) Exists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM holdings WHERE code = ?`, code).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check holding %s: %w", code, err)
	}
	return n > 0, nil
}

// List returns all holdings ordered by code
func (r *Repository) List(ctx context.Context) ([]Holding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+holdingColumns+` FROM holdings ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Codes returns the codes of all holdings
func (r *Repository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code FROM holdings ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan holding code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Insert stores a new holding. A duplicate code yields an AlreadyExists error.
func (r *Repository) Insert(ctx context.Context, h *Holding) error {
	now := time.Now()
	h.CreatedAt, h.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO holdings (`+holdingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Code,
		h.Name,
		money.FormatShares(h.Shares),
		money.FormatNav(h.YesterdayNav),
		money.FormatAmount(h.HoldingAmount),
		nullDecimal(h.HoldingProfitAmount, money.FormatAmount),
		nullDecimal(h.HoldingProfitRate, decimal.Decimal.String),
		nullDecimal(h.TodayEstimateNav, money.FormatNav),
		nullDecimal(h.TodayEstimateAmount, money.FormatAmount),
		nullDecimal(h.PercentageChange, decimal.Decimal.String),
		nullUnix(h.TodayEstimateUpdateTime),
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists(h.Code)
		}
		return fmt.Errorf("failed to insert holding %s: %w", h.Code, err)
	}

	r.log.Debug().Str("code", h.Code).Msg("Inserted holding")
	return nil
}

// UpdateValuation overwrites the principal fields (shares, amount, profit).
// The NAV basis and the estimate overlay are left alone.
func (r *Repository) UpdateValuation(ctx context.Context, code string, v Valuation) error {
	res, err := r.db.ExecContext(ctx, `UPDATE holdings SET
			shares = ?, holding_amount = ?, holding_profit_amount = ?, holding_profit_rate = ?, updated_at = ?
		WHERE code = ?`,
		money.FormatShares(v.Shares),
		money.FormatAmount(v.Amount),
		nullDecimal(v.ProfitAmount, money.FormatAmount),
		nullDecimal(v.ProfitRate, decimal.Decimal.String),
		time.Now().Unix(),
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding %s: %w", code, err)
	}
	return requireRow(res, code)
}

// UpdateNav moves the NAV basis to nav and stores the revalued amount and
// profit. Shares are not touched.
func (r *Repository) UpdateNav(ctx context.Context, code string, nav decimal.Decimal, v Valuation) error {
	res, err := r.db.ExecContext(ctx, `UPDATE holdings SET
			yesterday_nav = ?, holding_amount = ?, holding_profit_amount = ?, updated_at = ?
		WHERE code = ?`,
		money.FormatNav(nav),
		money.FormatAmount(v.Amount),
		nullDecimal(v.ProfitAmount, money.FormatAmount),
		time.Now().Unix(),
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to update nav for %s: %w", code, err)
	}
	return requireRow(res, code)
}

// UpdateEstimate overwrites only the estimate overlay fields.
func (r *Repository) UpdateEstimate(ctx context.Context, code string, o EstimateOverlay) error {
	res, err := r.db.ExecContext(ctx, `UPDATE holdings SET
			today_estimate_nav = ?, today_estimate_amount = ?, percentage_change = ?,
			today_estimate_update_time = ?, updated_at = ?
		WHERE code = ?`,
		money.FormatNav(o.Nav),
		money.FormatAmount(o.Amount),
		nullDecimal(o.PercentageChange, decimal.Decimal.String),
		nullUnix(o.UpdateTime),
		time.Now().Unix(),
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to update estimate for %s: %w", code, err)
	}
	return requireRow(res, code)
}

// DeleteTx removes the holding row for code inside tx.
func DeleteTx(ctx context.Context, tx *sql.Tx, code string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE code = ?`, code)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holding %s: %w", code, err)
	}
	return res.RowsAffected()
}

// DeleteAllTx removes every holding inside tx.
func DeleteAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM holdings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holdings: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound(code)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(s scanner) (*Holding, error) {
	var (
		h                                    Holding
		shares, yesterdayNav, amount         string
		profitAmount, profitRate             sql.NullString
		estimateNav, estimateAmount, pctChng sql.NullString
		estimateTime                         sql.NullInt64
		createdAt, updatedAt                 int64
	)

	if err := s.Scan(
		&h.Code, &h.Name, &shares, &yesterdayNav, &amount,
		&profitAmount, &profitRate, &estimateNav,
		&estimateAmount, &pctChng, &estimateTime,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if h.Shares, err = money.Parse(shares); err != nil {
		return nil, fmt.Errorf("corrupt shares for %s: %w", h.Code, err)
	}
	if h.YesterdayNav, err = money.Parse(yesterdayNav); err != nil {
		return nil, fmt.Errorf("corrupt yesterday_nav for %s: %w", h.Code, err)
	}
	if h.HoldingAmount, err = money.Parse(amount); err != nil {
		return nil, fmt.Errorf("corrupt holding_amount for %s: %w", h.Code, err)
	}

	h.HoldingProfitAmount = parseNullDecimal(profitAmount)
	h.HoldingProfitRate = parseNullDecimal(profitRate)
	h.TodayEstimateNav = parseNullDecimal(estimateNav)
	h.TodayEstimateAmount = parseNullDecimal(estimateAmount)
	h.PercentageChange = parseNullDecimal(pctChng)
	if estimateTime.Valid {
		t := time.Unix(estimateTime.Int64, 0)
		h.TodayEstimateUpdateTime = &t
	}
	h.CreatedAt = time.Unix(createdAt, 0)
	h.UpdatedAt = time.Unix(updatedAt, 0)

	return &h, nil
}

func nullDecimal(d *decimal.Decimal, format func(decimal.Decimal) string) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: format(*d), Valid: true}
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d, err := money.ParseOptional(s.String)
	if err != nil {
		return nil
	}
	return d
}
