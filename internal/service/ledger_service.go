package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/ledger"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/repository"
)

// RateResolver returns the rate of a currency into the base currency on a date.
type RateResolver interface {
	Rate(ctx context.Context, currency string, date time.Time) (float64, error)
}

// HistoryInvalidator drops persisted history from a date on.
type HistoryInvalidator interface {
	Invalidate(ctx context.Context, accountID string, from time.Time) (int64, error)
}

// LedgerService handles ledger ingestion and reads.
type LedgerService struct {
	accounts     AccountStore
	transactions *repository.TransactionRepository
	fx           RateResolver
	invalidator  HistoryInvalidator
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	accounts AccountStore,
	transactions *repository.TransactionRepository,
	fx RateResolver,
	invalidator HistoryInvalidator,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		accounts:     accounts,
		transactions: transactions,
		fx:           fx,
		invalidator:  invalidator,
		log:          log.With().Str("component", "ledger").Logger(),
	}
}

// GetTransactions returns an account's ledger in chronological order.
func (s *LedgerService) GetTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	transactions, err := s.transactions.GetTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	return transactions, nil
}

// ImportCSV reads a semicolon separated ledger into accountID.
//
// Each row gets its exchange rate on the purchase date and its total cost
// (units × price × fx + commission) before anything is stored; one bad row or
// missing rate rejects the whole file. units_after is then recomputed for the
// account and the persisted history is invalidated from the earliest imported date.
//
// Returns the stored transactions.
func (s *LedgerService) ImportCSV(ctx context.Context, accountID string, r io.Reader) ([]model.Transaction, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	imported, err := ledger.Parse(r, accountID)
	if err != nil {
		return nil, err
	}

	earliest := imported[0].Date
	for i := range imported {
		t := &imported[i]
		t.ID = uuid.New().String()

		t.FxRate, err = s.fx.Rate(ctx, t.Currency, t.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s rate for %s: %w", t.Currency, t.Date.Format(model.DateLayout), err)
		}
		t.TotalCost = totalCost(*t)

		if t.Date.Before(earliest) {
			earliest = t.Date
		}
	}

	existing, err := s.transactions.GetTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	running := unitsAfter(append(existing, imported...))
	for i := range imported {
		imported[i].UnitsAfter = running[imported[i].ID]
	}

	if err := s.transactions.ImportTransactions(ctx, imported, running); err != nil {
		return nil, err
	}

	removed, err := s.invalidator.Invalidate(ctx, accountID, earliest)
	if err != nil {
		return nil, fmt.Errorf("transactions stored but history invalidation failed: %w", err)
	}

	s.log.Info().
		Str("account_id", accountID).
		Int("transactions", len(imported)).
		Time("earliest", earliest).
		Int64("history_rows_removed", removed).
		Msg("ledger imported")

	return imported, nil
}

// totalCost is units × price × fx + commission, rounded to cents.
func totalCost(t model.Transaction) float64 {
	gross := decimal.NewFromFloat(t.Units).
		Mul(decimal.NewFromFloat(t.UnitPrice)).
		Mul(decimal.NewFromFloat(t.FxRate))
	return gross.Add(decimal.NewFromFloat(t.Commission)).Round(RoundingPrecision).InexactFloat64()
}

// unitsAfter computes the running unit total per asset class in chronological
// order, keyed by transaction ID. Same-day transactions keep their given order.
func unitsAfter(transactions []model.Transaction) map[string]float64 {
	ordered := make([]model.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return model.Day(ordered[i].Date).Before(model.Day(ordered[j].Date))
	})

	totals := make(map[string]decimal.Decimal)
	out := make(map[string]float64, len(ordered))
	for _, t := range ordered {
		total := totals[t.AssetClass].Add(decimal.NewFromFloat(t.Units))
		totals[t.AssetClass] = total
		out[t.ID] = total.InexactFloat64()
	}
	return out
}
