package service

import (
	"context"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// Ledger yields an account's transactions in chronological order.
type Ledger interface {
	GetTransactionsForAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
}

// PriceHistory is the stored equity close history.
type PriceHistory interface {
	GetPriceSeries(ctx context.Context, ticker string, startDate, endDate time.Time) ([]model.PricePoint, error)
	GetPriceAsOf(ctx context.Context, ticker string, date time.Time) (model.PricePoint, error)
	InsertPrices(ctx context.Context, prices []model.PricePoint) (int, error)
}

// RateHistory is the stored exchange-rate history.
type RateHistory interface {
	GetRateSeries(ctx context.Context, currency string, startDate, endDate time.Time) ([]model.ExchangeRate, error)
	GetRateAsOf(ctx context.Context, currency string, date time.Time) (model.ExchangeRate, error)
	InsertRates(ctx context.Context, rates []model.ExchangeRate) (int, error)
}

// SyncCoverage records, per provider source and key, the contiguous date span
// already downloaded.
type SyncCoverage interface {
	GetCoverage(ctx context.Context, source, key string) (model.DateSpan, bool, error)
	ExtendCoverage(ctx context.Context, source, key string, span model.DateSpan) error
}

// BondRateTable maps (series, year index) to the locked-in coupon.
type BondRateTable interface {
	GetRate(ctx context.Context, series string, yearIndex int) (float64, error)
}

// SeriesStore persists account series with combine-first writes.
type SeriesStore interface {
	GetSeries(ctx context.Context, accountID string, startDate, endDate time.Time) (model.AccountSeries, error)
	GetLastDate(ctx context.Context, accountID string) (time.Time, bool, error)
	GetFirstIncompleteDate(ctx context.Context, accountID string) (time.Time, bool, error)
	MergeSeries(ctx context.Context, series model.AccountSeries) (int, error)
	DeleteFrom(ctx context.Context, accountID string, startDate time.Time) (int64, error)
}

// AccountStore looks up accounts.
type AccountStore interface {
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
}
