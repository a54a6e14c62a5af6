package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// AccountRepository provides data access methods for the account table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetAccounts returns every account ordered by name.
func (r *AccountRepository) GetAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, owner, created_at
		FROM account
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Owner, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account table results: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account table: %w", err)
	}

	return accounts, nil
}

// GetAccount returns one account or apperrors.ErrAccountNotFound.
func (r *AccountRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	var a model.Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, owner, created_at
		FROM account
		WHERE id = ?
	`, accountID).Scan(&a.ID, &a.Name, &a.Owner, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	return a, nil
}

// InsertAccount stores a new account.
func (r *AccountRepository) InsertAccount(ctx context.Context, a model.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account (id, name, owner, created_at)
		VALUES (?, ?, ?, ?)
	`, a.ID, a.Name, a.Owner, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}
