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

// ExchangeRateRepository provides data access methods for the exchange_rate table.
type ExchangeRateRepository struct {
	db *sql.DB
}

// NewExchangeRateRepository creates a new ExchangeRateRepository with the provided database connection.
func NewExchangeRateRepository(db *sql.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// InsertRates stores published rates, ignoring dates already stored.
// Returns the number of new rows.
func (r *ExchangeRateRepository) InsertRates(ctx context.Context, rates []model.ExchangeRate) (int, error) {
	inserted := 0
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO exchange_rate (currency, date, rate)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare exchange rate insert: %w", err)
		}
		defer stmt.Close()

		for _, rate := range rates {
			res, err := stmt.ExecContext(ctx, rate.Currency, formatDate(rate.Date), rate.Rate)
			if err != nil {
				return fmt.Errorf("failed to insert %s rate on %s: %w", rate.Currency, formatDate(rate.Date), err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

// GetRateAsOf returns the latest rate at or before date.
func (r *ExchangeRateRepository) GetRateAsOf(ctx context.Context, currency string, date time.Time) (model.ExchangeRate, error) {
	rate := model.ExchangeRate{Currency: currency}
	var dateStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT date, rate
		FROM exchange_rate
		WHERE currency = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, currency, formatDate(date)).Scan(&dateStr, &rate.Rate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExchangeRate{}, fmt.Errorf("%w: %s on %s", apperrors.ErrExchangeRateNotFound, currency, formatDate(date))
	}
	if err != nil {
		return model.ExchangeRate{}, fmt.Errorf("failed to query exchange_rate: %w", err)
	}
	rate.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.ExchangeRate{}, err
	}
	return rate, nil
}

// GetRateSeries returns rates of currency within [startDate, endDate] ascending,
// preceded by the latest rate before startDate when one exists.
func (r *ExchangeRateRepository) GetRateSeries(ctx context.Context, currency string, startDate, endDate time.Time) ([]model.ExchangeRate, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: %s after %s", apperrors.ErrInvalidDateRange, formatDate(startDate), formatDate(endDate))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date, rate
		FROM exchange_rate
		WHERE currency = ?
		AND date <= ?
		AND date >= COALESCE(
			(SELECT MAX(date) FROM exchange_rate WHERE currency = ? AND date <= ?),
			?
		)
		ORDER BY date ASC
	`, currency, formatDate(endDate), currency, formatDate(startDate), formatDate(startDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange_rate table: %w", err)
	}
	defer rows.Close()

	var rates []model.ExchangeRate
	for rows.Next() {
		rate := model.ExchangeRate{Currency: currency}
		var dateStr string
		if err := rows.Scan(&dateStr, &rate.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan exchange_rate results: %w", err)
		}
		rate.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange_rate table: %w", err)
	}
	return rates, nil
}
