package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/testutil"
)

func holdingsFor(t *testing.T, start, end time.Time, txs ...model.Transaction) service.HoldingsSeries {
	t.Helper()
	holdings, err := service.ReconstructHoldings(txs, start, end)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	return holdings[0]
}

// TestValuationEngine_Equity covers units × as-of close × as-of rate.
//
// WHY: closes are missing on weekends and holidays; an exact-date join would
// leave most of the calendar unvalued.
func TestValuationEngine_Equity(t *testing.T) {
	ctx := context.Background()

	t.Run("as-of close over weekends", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedPrices(t, db, "CDR.WA", "PLN", map[string]float64{
			"2023-01-05": 10,
			"2023-01-06": 11,
			"2023-01-09": 12,
		})
		h := holdingsFor(t, testutil.Date(2023, 1, 5), testutil.Date(2023, 1, 9),
			testutil.NewTransaction("acc").WithDate(testutil.Date(2023, 1, 5)).WithUnits(2).Transaction())

		// Execute
		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 5), testutil.Date(2023, 1, 9))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []model.Amount{
			model.Known(20), model.Known(22), model.Known(22), model.Known(22), model.Known(24),
		}, v.Values)
	})

	t.Run("foreign currency converted at the as-of rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedPrices(t, db, "AAPL", "USD", map[string]float64{"2023-01-02": 100})
		testutil.SeedRates(t, db, "USD", map[string]float64{"2022-12-30": 4.40, "2023-01-03": 4.50})
		h := holdingsFor(t, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 3),
			testutil.NewTransaction("acc").WithTicker("AAPL").WithCurrency("USD", 4.4).WithDate(testutil.Date(2023, 1, 2)).WithUnits(3).Transaction())

		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 3))

		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(1320), model.Known(1350)}, v.Values)
	})

	t.Run("gap tolerance leaves old closes unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedPrices(t, db, "CDR.WA", "PLN", map[string]float64{"2023-01-01": 10})
		h := holdingsFor(t, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 10),
			testutil.NewTransaction("acc").WithDate(testutil.Date(2023, 1, 1)).WithUnits(1).Transaction())

		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 10))

		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
		assert.Equal(t, model.Known(10), v.Values[7], "seven days old is still within tolerance")
		assert.False(t, v.Values[8].Valid)
		assert.False(t, v.Values[9].Valid)
	})

	t.Run("days before the first purchase stay unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedPrices(t, db, "CDR.WA", "PLN", map[string]float64{"2023-01-01": 10})
		h := holdingsFor(t, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2),
			testutil.NewTransaction("acc").WithDate(testutil.Date(2023, 1, 2)).WithUnits(1).Transaction())

		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		assert.False(t, v.Values[0].Valid)
		assert.Equal(t, model.Known(10), v.Values[1])
	})

	t.Run("held days before the first close are not reported", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedPrices(t, db, "CDR.WA", "PLN", map[string]float64{"2023-01-02": 10})
		h := holdingsFor(t, testutil.Date(2022, 12, 31), testutil.Date(2023, 1, 2),
			testutil.NewTransaction("acc").WithDate(testutil.Date(2022, 12, 31)).WithUnits(1).Transaction())

		v, err := engine.Value(ctx, h, testutil.Date(2022, 12, 31), testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		assert.Equal(t, testutil.Date(2023, 1, 2), v.QuotedFrom)
		assert.False(t, v.Values[0].Valid)
		assert.False(t, v.Values[1].Valid)
		assert.Equal(t, model.Known(10), v.Values[2])
	})

	t.Run("no stored prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		h := holdingsFor(t, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 1),
			testutil.NewTransaction("acc").WithDate(testutil.Date(2023, 1, 1)).Transaction())

		_, err := engine.Value(ctx, h, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 1))

		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
	})
}

// TestValuationEngine_OtherKinds covers bonds, cash and unknown kinds.
//
// WHY: bond and cash values never touch the price feed; a dispatch mistake would
// make them depend on data that is never downloaded for them.
func TestValuationEngine_OtherKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("bond compounds from the purchase date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedBondRates(t, db, "EDO0133", 0.03, 0.03)
		purchase := testutil.Date(2023, 1, 1)
		valuation := purchase.AddDate(0, 0, 400)
		h := holdingsFor(t, valuation, valuation,
			testutil.NewTransaction("acc").WithTicker("EDO0133").WithDate(purchase).WithUnits(10).Transaction())

		// Execute
		v, err := engine.Value(ctx, h, valuation, valuation)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(1033)}, v.Values)
	})

	t.Run("bond without a coupon for the year", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		testutil.SeedBondRates(t, db, "COI0125", 0.05)
		purchase := testutil.Date(2023, 1, 1)
		h := holdingsFor(t, purchase, purchase.AddDate(0, 0, 400),
			testutil.NewTransaction("acc").WithTicker("COI0125").WithDate(purchase).WithUnits(1).Transaction())

		v, err := engine.Value(ctx, h, purchase, purchase.AddDate(0, 0, 400))

		assert.ErrorIs(t, err, apperrors.ErrBondRateMissing)
		assert.Equal(t, model.Known(100), v.Values[0])
		assert.Equal(t, model.Known(105), v.Values[365])
		assert.False(t, v.Values[366].Valid)
	})

	t.Run("cash is its units", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		h := holdingsFor(t, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2),
			testutil.NewTransaction("acc").WithTicker("CASH").WithDate(testutil.Date(2023, 1, 1)).WithUnits(250.5).Transaction())

		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(250.5), model.Known(250.5)}, v.Values)
	})

	t.Run("unknown kind is skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		engine := testutil.NewTestValuationEngine(t, db)
		h := service.HoldingsSeries{
			Ticker: "???",
			Kind:   model.KindUnknown,
			Start:  testutil.Date(2023, 1, 1),
			Units:  []model.Amount{model.Known(1)},
		}

		v, err := engine.Value(ctx, h, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 1))

		require.NoError(t, err)
		assert.True(t, v.Skipped)
		assert.False(t, v.Values[0].Valid)
	})
}
