package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// TransactionRepository is the ledger store. Transactions are written once on
// import; only the derived units_after column is rewritten afterwards.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetTransactionsForAccount returns the account's ledger in chronological order.
// Same-day transactions keep their insertion order. A row whose date or asset
// kind cannot be decoded fails the whole read with apperrors.ErrMalformedLedgerEntry.
func (r *TransactionRepository) GetTransactionsForAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT id, account_id, date, operation_ticker, asset_class, currency, units,
		       unit_price, commission, ticker, investment_type, asset_kind,
		       fx_rate, total_cost, units_after
		FROM ledger_transaction
		WHERE account_id = ?
		ORDER BY date ASC, rowid ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var dateStr, kindStr string

		err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&dateStr,
			&t.OperationTicker,
			&t.AssetClass,
			&t.Currency,
			&t.Units,
			&t.UnitPrice,
			&t.Commission,
			&t.Ticker,
			&t.InvestmentType,
			&kindStr,
			&t.FxRate,
			&t.TotalCost,
			&t.UnitsAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction scan: %w", apperrors.ErrMalformedLedgerEntry, err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s: %w", apperrors.ErrMalformedLedgerEntry, t.ID, err)
		}
		t.Kind, err = model.ParseAssetKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s: %w", apperrors.ErrMalformedLedgerEntry, t.ID, err)
		}

		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}

	return transactions, nil
}

// InsertTransaction stores one ledger row.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t model.Transaction) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO ledger_transaction (
			id, account_id, date, operation_ticker, asset_class, currency, units,
			unit_price, commission, ticker, investment_type, asset_kind,
			fx_rate, total_cost, units_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.AccountID,
		formatDate(t.Date),
		t.OperationTicker,
		t.AssetClass,
		t.Currency,
		t.Units,
		t.UnitPrice,
		t.Commission,
		t.Ticker,
		t.InvestmentType,
		t.Kind.String(),
		t.FxRate,
		t.TotalCost,
		t.UnitsAfter,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateUnitsAfter rewrites the running unit total of a transaction.
func (r *TransactionRepository) UpdateUnitsAfter(ctx context.Context, transactionID string, unitsAfter float64) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		UPDATE ledger_transaction SET units_after = ? WHERE id = ?
	`, unitsAfter, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update units_after: %w", err)
	}
	return nil
}

// ImportTransactions stores a batch of new transactions and rewrites units_after
// for every transaction in unitsAfter, all in one database transaction.
func (r *TransactionRepository) ImportTransactions(ctx context.Context, transactions []model.Transaction, unitsAfter map[string]float64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		scoped := r.WithTx(tx)
		for _, t := range transactions {
			if err := scoped.InsertTransaction(ctx, t); err != nil {
				return err
			}
		}
		for id, units := range unitsAfter {
			if err := scoped.UpdateUnitsAfter(ctx, id, units); err != nil {
				return err
			}
		}
		return nil
	})
}
