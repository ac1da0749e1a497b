package navhistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/fundwatch/internal/database"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/rs/zerolog"
)

// Repository handles nav_history database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new NAV history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "nav_history").Logger(),
	}
}

// InsertBatch writes records in a single transaction. Existing (code, date)
// rows are left untouched. Returns the number of rows actually inserted.
func (r *Repository) InsertBatch(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO nav_history (code, nav_date, nav, growth_percent)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			growth := sql.NullString{}
			if rec.GrowthPercent != nil {
				growth = sql.NullString{String: rec.GrowthPercent.String(), Valid: true}
			}

			res, err := stmt.ExecContext(ctx, rec.Code, rec.NavDate, money.FormatNav(rec.Nav), growth)
			if err != nil {
				return fmt.Errorf("failed to insert nav for %s on %s: %w", rec.Code, rec.NavDate, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().
		Str("code", records[0].Code).
		Int("batch", len(records)).
		Int("inserted", inserted).
		Msg("Inserted NAV history batch")

	return inserted, nil
}

// Latest returns the most recent record for code, or nil if none is stored.
func (r *Repository) Latest(ctx context.Context, code string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, nav_date, nav, growth_percent
		FROM nav_history
		WHERE code = ?
		ORDER BY nav_date DESC
		LIMIT 1
	`, code)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest nav for %s: %w", code, err)
	}
	return &rec, nil
}

// List returns records for code newest first. from and to are inclusive
// YYYY-MM-DD bounds; empty means unbounded.
func (r *Repository) List(ctx context.Context, code, from, to string) ([]Record, error) {
	query := `SELECT code, nav_date, nav, growth_percent FROM nav_history WHERE code = ?`
	args := []interface{}{code}

	if from != "" {
		query += ` AND nav_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND nav_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY nav_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nav history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav history: %w", err)
	}

	return records, nil
}

// Codes returns every fund code that has stored history.
func (r *Repository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT code FROM nav_history ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan history code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Count returns the number of stored records for code.
func (r *Repository) Count(ctx context.Context, code string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nav_history WHERE code = ?`, code).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nav history: %w", err)
	}
	return n, nil
}

// DeleteByCodeTx removes all records for code inside tx.
func DeleteByCodeTx(ctx context.Context, tx *sql.Tx, code string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM nav_history WHERE code = ?`, code)
	if err != nil {
		return 0, fmt.Errorf("failed to delete nav history for %s: %w", code, err)
	}
	return res.RowsAffected()
}

// DeleteAllTx removes every record inside tx.
func DeleteAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM nav_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete nav history: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByCode removes all records for code.
func (r *Repository) DeleteByCode(ctx context.Context, code string) (int64, error) {
	var deleted int64
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		deleted, err = DeleteByCodeTx(ctx, tx, code)
		return err
	})
	return deleted, err
}

// DeleteAll removes every stored record.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		deleted, err = DeleteAllTx(ctx, tx)
		return err
	})
	return deleted, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec    Record
		nav    string
		growth sql.NullString
	)
	if err := s.Scan(&rec.Code, &rec.NavDate, &nav, &growth); err != nil {
		return Record{}, err
	}

	var err error
	if rec.Nav, err = money.Parse(nav); err != nil {
		return Record{}, fmt.Errorf("corrupt nav for %s on %s: %w", rec.Code, rec.NavDate, err)
	}
	if growth.Valid && strings.TrimSpace(growth.String) != "" {
		if g, err := money.Parse(growth.String); err == nil {
			rec.GrowthPercent = &g
		}
	}
	return rec, nil
}
