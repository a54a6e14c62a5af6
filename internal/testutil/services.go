package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/repository"
	"github.com/ndewijer/invest-tracker/internal/service"
)

// DefaultGapTolerance is the as-of window used by test valuation engines.
const DefaultGapTolerance = 7 * 24 * time.Hour

// NewTestValuationEngine builds an engine over the stored provider data.
func NewTestValuationEngine(t *testing.T, db *sql.DB) *service.ValuationEngine {
	t.Helper()

	return service.NewValuationEngine(
		repository.NewPriceRepository(db),
		repository.NewExchangeRateRepository(db),
		repository.NewBondRateRepository(db),
		DefaultGapTolerance,
	)
}

// NewTestRefreshService builds the scheduler with stubbed provider syncs so runs
// only see data seeded into db.
func NewTestRefreshService(t *testing.T, db *sql.DB, clock *Clock, prices, fx service.ProviderSync) *service.RefreshService {
	t.Helper()

	if prices == nil {
		prices = NewSyncStub()
	}
	if fx == nil {
		fx = NewSyncStub()
	}
	return service.NewRefreshService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewHistoryRepository(db),
		NewTestValuationEngine(t, db),
		prices,
		fx,
		2,
		zerolog.Nop(),
	).WithClock(clock.Now)
}

// NewTestAccountService builds the account read-model service.
func NewTestAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()

	return service.NewAccountService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewHistoryRepository(db),
	)
}

// NewTestLedgerService builds the ledger importer with the given rate source.
func NewTestLedgerService(t *testing.T, db *sql.DB, fx service.RateResolver, invalidator service.HistoryInvalidator) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		fx,
		invalidator,
		zerolog.Nop(),
	)
}

// NewTestSystemService builds the health and version service.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}
