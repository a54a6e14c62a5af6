package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// PriceRepository provides data access methods for the price_history table.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// InsertPrices stores daily closes, ignoring dates already stored for a ticker.
// Returns the number of new rows.
func (r *PriceRepository) InsertPrices(ctx context.Context, prices []model.PricePoint) (int, error) {
	inserted := 0
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO price_history (ticker, date, close, currency)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare price insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			res, err := stmt.ExecContext(ctx, p.Ticker, formatDate(p.Date), p.Close, p.Currency)
			if err != nil {
				return fmt.Errorf("failed to insert price for %s on %s: %w", p.Ticker, formatDate(p.Date), err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

// GetPriceAsOf returns the latest close at or before date.
func (r *PriceRepository) GetPriceAsOf(ctx context.Context, ticker string, date time.Time) (model.PricePoint, error) {
	var p model.PricePoint
	var dateStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT ticker, date, close, currency
		FROM price_history
		WHERE ticker = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, ticker, formatDate(date)).Scan(&p.Ticker, &dateStr, &p.Close, &p.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PricePoint{}, fmt.Errorf("%w: %s on %s", apperrors.ErrPriceNotFound, ticker, formatDate(date))
	}
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("failed to query price_history: %w", err)
	}
	p.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.PricePoint{}, err
	}
	return p, nil
}

// GetPriceSeries returns the closes of ticker dated within [startDate, endDate] in
// ascending order, preceded by the latest close before startDate when one exists,
// so that as-of lookups on startDate resolve.
func (r *PriceRepository) GetPriceSeries(ctx context.Context, ticker string, startDate, endDate time.Time) ([]model.PricePoint, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: %s after %s", apperrors.ErrInvalidDateRange, formatDate(startDate), formatDate(endDate))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ticker, date, close, currency
		FROM price_history
		WHERE ticker = ?
		AND date <= ?
		AND date >= COALESCE(
			(SELECT MAX(date) FROM price_history WHERE ticker = ? AND date <= ?),
			?
		)
		ORDER BY date ASC
	`, ticker, formatDate(endDate), ticker, formatDate(startDate), formatDate(startDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history table: %w", err)
	}
	defer rows.Close()

	var prices []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		var dateStr string
		if err := rows.Scan(&p.Ticker, &dateStr, &p.Close, &p.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan price_history results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history table: %w", err)
	}
	return prices, nil
}
