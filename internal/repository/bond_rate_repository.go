package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// BondRateRepository provides data access methods for the bond_rate coupon table.
type BondRateRepository struct {
	db *sql.DB
}

// NewBondRateRepository creates a new BondRateRepository with the provided database connection.
func NewBondRateRepository(db *sql.DB) *BondRateRepository {
	return &BondRateRepository{db: db}
}

// ReplaceSeries replaces the stored schedule of every given series in one transaction.
// Series not listed are left untouched.
func (r *BondRateRepository) ReplaceSeries(ctx context.Context, series []model.BondSeries) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, s := range series {
			if _, err := tx.ExecContext(ctx, `DELETE FROM bond_rate WHERE series = ?`, s.Series); err != nil {
				return fmt.Errorf("failed to clear bond series %s: %w", s.Series, err)
			}
			for i, rate := range s.Rates {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO bond_rate (series, year_index, rate) VALUES (?, ?, ?)
				`, s.Series, i+1, rate)
				if err != nil {
					return fmt.Errorf("failed to insert bond rate %s/%d: %w", s.Series, i+1, err)
				}
			}
		}
		return nil
	})
}

// GetRate returns the coupon of series for a 1-based year index.
func (r *BondRateRepository) GetRate(ctx context.Context, series string, yearIndex int) (float64, error) {
	var rate float64
	err := r.db.QueryRowContext(ctx, `
		SELECT rate FROM bond_rate WHERE series = ? AND year_index = ?
	`, series, yearIndex).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s year %d", apperrors.ErrBondRateMissing, series, yearIndex)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query bond_rate: %w", err)
	}
	return rate, nil
}

// GetSeries returns every stored schedule ordered by series name.
func (r *BondRateRepository) GetSeries(ctx context.Context) ([]model.BondSeries, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT series, year_index, rate FROM bond_rate ORDER BY series ASC, year_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bond_rate table: %w", err)
	}
	defer rows.Close()

	var out []model.BondSeries
	for rows.Next() {
		var name string
		var yearIndex int
		var rate float64
		if err := rows.Scan(&name, &yearIndex, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan bond_rate results: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Series != name {
			out = append(out, model.BondSeries{Series: name})
		}
		out[len(out)-1].Rates = append(out[len(out)-1].Rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bond_rate table: %w", err)
	}
	return out, nil
}
