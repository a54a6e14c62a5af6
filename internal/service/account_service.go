package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/repository"
)

// AccountService handles accounts and the read models over their history.
type AccountService struct {
	accountRepo *repository.AccountRepository
	ledger      Ledger
	store       SeriesStore
	now         func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo *repository.AccountRepository, ledger Ledger, store SeriesStore) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledger:      ledger,
		store:       store,
		now:         time.Now,
	}
}

// GetAccounts returns every account.
func (s *AccountService) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accountRepo.GetAccounts(ctx)
}

// GetAccount returns one account or apperrors.ErrAccountNotFound.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	return s.accountRepo.GetAccount(ctx, accountID)
}

// CreateAccount stores a new account with a generated ID.
func (s *AccountService) CreateAccount(ctx context.Context, name, owner string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, fmt.Errorf("account name is required")
	}
	account := model.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Owner:     strings.TrimSpace(owner),
		CreatedAt: s.now().UTC(),
	}
	if err := s.accountRepo.InsertAccount(ctx, account); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// History returns the persisted rows of an account within [startDate, endDate].
func (s *AccountService) History(ctx context.Context, accountID string, startDate, endDate time.Time) (model.AccountSeries, error) {
	if endDate.Before(startDate) {
		return model.AccountSeries{}, apperrors.ErrInvalidDateRange
	}
	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return model.AccountSeries{}, err
	}
	series, err := s.store.GetSeries(ctx, accountID, startDate, endDate)
	if err != nil {
		return model.AccountSeries{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}
	if series.Rows == nil {
		series.Rows = []model.HistoryRow{}
	}
	return series, nil
}

// Breakdown returns the value and cumulative cost per asset class on date.
// Ticker values are forward-filled from earlier rows; cost is the sum of the cost
// contributions dated on or before date. Classes are sorted by name.
func (s *AccountService) Breakdown(ctx context.Context, accountID string, date time.Time) ([]model.Breakdown, error) {
	date = model.Day(date)
	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.ledger.GetTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	series, err := s.store.GetSeries(ctx, accountID, time.Time{}, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}

	classOf := make(map[string]string)
	byClass := make(map[string]*model.Breakdown)
	entry := func(class string) *model.Breakdown {
		b, ok := byClass[class]
		if !ok {
			b = &model.Breakdown{AssetClass: class}
			byClass[class] = b
		}
		return b
	}

	for _, t := range transactions {
		if model.Day(t.Date).After(date) {
			continue
		}
		if t.Ticker != "" {
			classOf[t.Ticker] = t.AssetClass
		}
		entry(t.AssetClass).Cost += t.CostContribution()
	}

	lastValue := make(map[string]float64)
	for _, row := range series.Rows {
		for ticker, cell := range row.Tickers {
			if cell.Value.Valid {
				lastValue[ticker] = cell.Value.Value
			}
		}
	}
	for ticker, value := range lastValue {
		entry(classOf[ticker]).Value += value
	}

	out := make([]model.Breakdown, 0, len(byClass))
	for _, b := range byClass {
		b.Value = round(b.Value)
		b.Cost = round(b.Cost)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetClass < out[j].AssetClass })
	return out, nil
}
