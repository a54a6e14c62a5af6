package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// HistoryRepository is the series store for account_history and account_history_ticker.
// Writes go through MergeSeries, which only fills unknown cells.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new repository instance.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// GetSeries reads the persisted rows of an account dated within [startDate, endDate].
func (r *HistoryRepository) GetSeries(ctx context.Context, accountID string, startDate, endDate time.Time) (model.AccountSeries, error) {
	series := model.AccountSeries{AccountID: accountID}
	index := make(map[string]int)

	err := r.streamRows(ctx, accountID, startDate, endDate, func(dateStr string, row model.HistoryRow) error {
		index[dateStr] = len(series.Rows)
		series.Rows = append(series.Rows, row)
		return nil
	})
	if err != nil {
		return model.AccountSeries{}, err
	}
	if len(series.Rows) == 0 {
		return series, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date, ticker, units, value
		FROM account_history_ticker
		WHERE account_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC, ticker ASC
	`, accountID, formatDate(startDate), formatDate(endDate))
	if err != nil {
		return model.AccountSeries{}, fmt.Errorf("failed to query account_history_ticker table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr, ticker string
		var units, value sql.NullFloat64
		if err := rows.Scan(&dateStr, &ticker, &units, &value); err != nil {
			return model.AccountSeries{}, fmt.Errorf("failed to scan account_history_ticker results: %w", err)
		}
		i, ok := index[dateStr]
		if !ok {
			continue
		}
		series.Rows[i].Tickers[ticker] = model.TickerCell{Units: amount(units), Value: amount(value)}
	}
	if err = rows.Err(); err != nil {
		return model.AccountSeries{}, fmt.Errorf("error iterating account_history_ticker table: %w", err)
	}

	return series, nil
}

// streamRows calls callback for every account_history row in the range, ascending.
func (r *HistoryRepository) streamRows(
	ctx context.Context,
	accountID string,
	startDate, endDate time.Time,
	callback func(dateStr string, row model.HistoryRow) error,
) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, account_balance, total_cost, incomplete
		FROM account_history
		WHERE account_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`, accountID, formatDate(startDate), formatDate(endDate))
	if err != nil {
		return fmt.Errorf("failed to query account_history table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var balance, cost sql.NullFloat64
		row := model.HistoryRow{Tickers: map[string]model.TickerCell{}}
		if err := rows.Scan(&dateStr, &balance, &cost, &row.Incomplete); err != nil {
			return fmt.Errorf("failed to scan account_history results: %w", err)
		}
		row.Date, err = ParseTime(dateStr)
		if err != nil {
			return err
		}
		row.AccountBalance = amount(balance)
		row.TotalCost = amount(cost)

		if err := callback(dateStr, row); err != nil {
			return err
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating account_history table: %w", err)
	}
	return nil
}

// GetLastDate returns the last persisted date of an account.
func (r *HistoryRepository) GetLastDate(ctx context.Context, accountID string) (time.Time, bool, error) {
	return r.queryDate(ctx, `SELECT MAX(date) FROM account_history WHERE account_id = ?`, accountID)
}

// GetFirstIncompleteDate returns the earliest row that is flagged incomplete or has no balance.
func (r *HistoryRepository) GetFirstIncompleteDate(ctx context.Context, accountID string) (time.Time, bool, error) {
	return r.queryDate(ctx, `
		SELECT MIN(date) FROM account_history
		WHERE account_id = ? AND (incomplete = 1 OR account_balance IS NULL)
	`, accountID)
}

func (r *HistoryRepository) queryDate(ctx context.Context, query string, args ...any) (time.Time, bool, error) {
	var dateStr sql.NullString
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&dateStr); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query account_history date: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	date, err := ParseTime(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return date, true, nil
}

// MergeSeries writes series with combine-first semantics in a single transaction:
// known cells already stored are never changed, unknown ones are filled. A stored
// balance is replaced only while its row is incomplete. Returns the number of rows
// written.
func (r *HistoryRepository) MergeSeries(ctx context.Context, series model.AccountSeries) (int, error) {
	if series.Empty() {
		return 0, nil
	}
	calculatedAt := r.now().UTC()

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		rowStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO account_history (account_id, date, account_balance, total_cost, incomplete, calculated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (account_id, date) DO UPDATE SET
				account_balance = CASE
					WHEN account_history.account_balance IS NOT NULL AND account_history.incomplete = 0
						THEN account_history.account_balance
					ELSE COALESCE(excluded.account_balance, account_history.account_balance)
				END,
				incomplete = CASE
					WHEN account_history.account_balance IS NOT NULL AND account_history.incomplete = 0
						THEN account_history.incomplete
					WHEN excluded.account_balance IS NOT NULL
						THEN excluded.incomplete
					ELSE account_history.incomplete
				END,
				total_cost = COALESCE(account_history.total_cost, excluded.total_cost)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare account_history upsert: %w", err)
		}
		defer rowStmt.Close()

		cellStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO account_history_ticker (account_id, date, ticker, units, value)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (account_id, date, ticker) DO UPDATE SET
				units = COALESCE(account_history_ticker.units, excluded.units),
				value = COALESCE(account_history_ticker.value, excluded.value)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare account_history_ticker upsert: %w", err)
		}
		defer cellStmt.Close()

		for _, row := range series.Rows {
			date := formatDate(row.Date)
			_, err := rowStmt.ExecContext(ctx,
				series.AccountID,
				date,
				nullFloat(row.AccountBalance),
				nullFloat(row.TotalCost),
				row.Incomplete,
				calculatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to merge account_history %s: %w", date, err)
			}

			tickers := make([]string, 0, len(row.Tickers))
			for t := range row.Tickers {
				tickers = append(tickers, t)
			}
			sort.Strings(tickers)
			for _, ticker := range tickers {
				cell := row.Tickers[ticker]
				if !cell.Units.Valid && !cell.Value.Valid {
					continue
				}
				_, err := cellStmt.ExecContext(ctx,
					series.AccountID,
					date,
					ticker,
					nullFloat(cell.Units),
					nullFloat(cell.Value),
				)
				if err != nil {
					return fmt.Errorf("failed to merge %s cell on %s: %w", ticker, date, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(series.Rows), nil
}

// DeleteFrom removes every row of an account dated on or after startDate.
// Returns the number of history rows removed.
func (r *HistoryRepository) DeleteFrom(ctx context.Context, accountID string, startDate time.Time) (int64, error) {
	var removed int64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM account_history_ticker WHERE account_id = ? AND date >= ?
		`, accountID, formatDate(startDate)); err != nil {
			return fmt.Errorf("failed to delete account_history_ticker rows: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM account_history WHERE account_id = ? AND date >= ?
		`, accountID, formatDate(startDate))
		if err != nil {
			return fmt.Errorf("failed to delete account_history rows: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}
