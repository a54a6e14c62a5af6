package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/repository"
	"github.com/ndewijer/invest-tracker/internal/retry"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/testutil"
)

var fastPolicy = retry.Policy{MaxRetries: 2, Base: time.Millisecond, Max: time.Millisecond}

// newTestPriceService builds a PriceService over db whose "today" is fixed.
func newTestPriceService(db *sql.DB, client *testutil.MockYahooClient, today time.Time) *service.PriceService {
	return service.NewPriceService(
		repository.NewPriceRepository(db),
		repository.NewCoverageRepository(db),
		client,
		fastPolicy,
		zerolog.Nop(),
	).WithClock(func() time.Time { return today })
}

// TestPriceService_AppendSince covers the incremental Yahoo download.
//
// WHY: prices are only downloaded for days not fetched before; re-downloading
// wastes calls, and skipping a span (a backdated purchase, a weekend first day)
// leaves held days without a close so the account never becomes complete.
func TestPriceService_AppendSince(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2023, 1, 6, 20, 0, 0, 0, time.UTC)

	t.Run("first download reaches back a week and skips null bars", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockYahooClient().WithResponse(testutil.CreateMockYahooResponse(
			"AAPL", "USD", testutil.Date(2023, 1, 3), testutil.F(125.071), nil, testutil.F(126.36),
		))
		svc := newTestPriceService(db, client, today)

		// Execute
		added, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 3))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, testutil.Date(2022, 12, 27), client.LastStart)
		assert.Equal(t, testutil.Date(2023, 1, 6), client.LastEnd)

		price, currency, err := svc.GetPrice(ctx, "AAPL", testutil.Date(2023, 1, 4))
		require.NoError(t, err)
		assert.Equal(t, 125.07, price)
		assert.Equal(t, "USD", currency)

		covered, ok, err := repository.NewCoverageRepository(db).GetCoverage(ctx, model.SourcePrices, "AAPL")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, model.Span(testutil.Date(2022, 12, 27), testutil.Date(2023, 1, 5)), covered,
			"today is only covered once its close is published")
	})

	t.Run("saturday start gets the friday close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockYahooClient().WithResponse(testutil.CreateMockYahooResponse(
			"AAPL", "USD", testutil.Date(2022, 12, 30), testutil.F(129.93), nil, nil, testutil.F(125.07),
		))
		svc := newTestPriceService(db, client, today)

		_, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2022, 12, 31))

		require.NoError(t, err)
		assert.Equal(t, testutil.Date(2022, 12, 24), client.LastStart)
		price, _, err := svc.GetPrice(ctx, "AAPL", testutil.Date(2022, 12, 31))
		require.NoError(t, err)
		assert.Equal(t, 129.93, price)
	})

	t.Run("continues after the covered range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedPrices(t, db, "AAPL", "USD", map[string]float64{"2023-01-04": 100})
		testutil.SeedCoverage(t, db, model.SourcePrices, "AAPL", testutil.Date(2022, 12, 25), testutil.Date(2023, 1, 4))
		client := testutil.NewMockYahooClient().WithResponse(testutil.CreateMockYahooResponse(
			"AAPL", "USD", testutil.Date(2023, 1, 4), testutil.F(999), testutil.F(101),
		))
		svc := newTestPriceService(db, client, today)

		added, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 1))

		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, 1, client.Queries())
		assert.Equal(t, testutil.Date(2023, 1, 5), client.LastStart)
		price, _, err := svc.GetPrice(ctx, "AAPL", testutil.Date(2023, 1, 4))
		require.NoError(t, err)
		assert.Equal(t, 100.0, price, "stored closes are never overwritten")
	})

	t.Run("backdated start fills the head of the covered range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedPrices(t, db, "AAPL", "USD", map[string]float64{"2023-01-04": 100})
		testutil.SeedCoverage(t, db, model.SourcePrices, "AAPL", testutil.Date(2023, 1, 4), testutil.Date(2023, 1, 6))
		client := testutil.NewMockYahooClient().WithResponse(testutil.CreateMockYahooResponse(
			"AAPL", "USD", testutil.Date(2023, 1, 2), testutil.F(98), testutil.F(99), testutil.F(999),
		))
		svc := newTestPriceService(db, client, today)

		added, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, 1, client.Queries())
		assert.Equal(t, testutil.Date(2022, 12, 26), client.LastStart)
		assert.Equal(t, testutil.Date(2023, 1, 3), client.LastEnd)

		covered, _, err := repository.NewCoverageRepository(db).GetCoverage(ctx, model.SourcePrices, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, model.Span(testutil.Date(2022, 12, 26), testutil.Date(2023, 1, 6)), covered)
	})

	t.Run("up to date makes no call", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedPrices(t, db, "AAPL", "USD", map[string]float64{"2023-01-06": 100})
		testutil.SeedCoverage(t, db, model.SourcePrices, "AAPL", testutil.Date(2022, 12, 25), testutil.Date(2023, 1, 6))
		client := testutil.NewMockYahooClient()
		svc := newTestPriceService(db, client, today)

		added, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 1))

		require.NoError(t, err)
		assert.Zero(t, added)
		assert.Zero(t, client.Queries())
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		transient := fmt.Errorf("%w: status 503", apperrors.ErrProviderTransient)
		client := testutil.NewMockYahooClient().
			WithErrors(transient, transient).
			WithResponse(testutil.CreateMockYahooResponse("AAPL", "USD", testutil.Date(2023, 1, 6), testutil.F(1)))
		svc := newTestPriceService(db, client, today)

		added, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 6))

		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, 3, client.Queries())
	})

	t.Run("exhausted retries report the provider unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		transient := fmt.Errorf("%w: status 429", apperrors.ErrProviderTransient)
		client := testutil.NewMockYahooClient().WithErrors(transient, transient, transient)
		svc := newTestPriceService(db, client, today)

		_, err := svc.AppendSince(ctx, "AAPL", testutil.Date(2023, 1, 6))

		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
		assert.Equal(t, 3, client.Queries())
		_, ok, err := repository.NewCoverageRepository(db).GetCoverage(ctx, model.SourcePrices, "AAPL")
		require.NoError(t, err)
		assert.False(t, ok, "a failed download is not recorded as covered")
	})

	t.Run("unknown symbol is not retried", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockYahooClient().WithErrors(apperrors.ErrSymbolNotFound)
		svc := newTestPriceService(db, client, today)

		_, err := svc.AppendSince(ctx, "NOPE", testutil.Date(2023, 1, 6))

		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
		assert.Equal(t, 1, client.Queries())
	})
}
