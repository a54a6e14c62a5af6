package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(model.DateLayout, str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

func nullFloat(a model.Amount) sql.NullFloat64 {
	return sql.NullFloat64{Float64: a.Value, Valid: a.Valid}
}

func amount(n sql.NullFloat64) model.Amount {
	return model.Amount{Value: n.Float64, Valid: n.Valid}
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
