package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/testutil"
)

// TestReconstructHoldings covers the step-function reconstruction of units held.
//
// WHY: every valuation multiplies by units held; a zero before the first purchase
// or a missed forward-fill would silently value days the account never held.
func TestReconstructHoldings(t *testing.T) {
	t.Run("forward-fills between events and leaves the prefix unknown", func(t *testing.T) {
		// Setup
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 3)).WithUnits(10).Transaction(),
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 5)).WithUnits(-4).Transaction(),
		}

		// Execute
		holdings, err := service.ReconstructHoldings(txs, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 7))

		// Assert
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, []model.Amount{
			{},
			{},
			model.Known(10),
			model.Known(10),
			model.Known(6),
			model.Known(6),
			model.Known(6),
		}, holdings[0].Units)
		assert.Equal(t, testutil.Date(2023, 1, 3), holdings[0].FirstDate)
		assert.Equal(t, model.KindEquity, holdings[0].Kind)
	})

	t.Run("same-day events end on the terminal total", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 2)).WithUnits(5).Transaction(),
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 2)).WithUnits(-2).Transaction(),
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 2)).WithUnits(7).Transaction(),
		}

		holdings, err := service.ReconstructHoldings(txs, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 3))

		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(10), model.Known(10)}, holdings[0].Units)
	})

	t.Run("events before the range still count", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2022, 12, 1)).WithUnits(3).Transaction(),
		}

		holdings, err := service.ReconstructHoldings(txs, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(3), model.Known(3)}, holdings[0].Units)
		assert.Equal(t, model.Known(3), holdings[0].At(testutil.Date(2023, 1, 2)))
		assert.False(t, holdings[0].At(testutil.Date(2023, 1, 3)).Valid)
	})

	t.Run("unsorted input is ordered by date", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 3)).WithUnits(-1).Transaction(),
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 2)).WithUnits(4).Transaction(),
		}

		holdings, err := service.ReconstructHoldings(txs, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 3))

		require.NoError(t, err)
		assert.Equal(t, []model.Amount{model.Known(4), model.Known(3)}, holdings[0].Units)
	})

	t.Run("one series per ticker and no series without a ticker", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("BBB").Transaction(),
			testutil.NewTransaction("acc").WithTicker("CASH").Transaction(),
			testutil.NewTransaction("acc").WithTicker("").WithUnits(0).WithCommission(3).Transaction(),
			testutil.NewTransaction("acc").WithTicker("EDO0133").Transaction(),
		}

		holdings, err := service.ReconstructHoldings(txs, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 2))

		require.NoError(t, err)
		require.Len(t, holdings, 3)
		assert.Equal(t, "BBB", holdings[0].Ticker)
		assert.Equal(t, model.KindCash, holdings[1].Kind)
		assert.Equal(t, model.KindBond, holdings[2].Kind)
	})
}

// TestReconstructHoldings_Failures covers inputs that abort the reconstruction.
//
// WHY: holdings need a total order over every event; one unusable entry must fail
// the account instead of producing a series that skips it.
func TestReconstructHoldings_Failures(t *testing.T) {
	t.Run("missing date", func(t *testing.T) {
		broken := []model.Transaction{testutil.NewTransaction("acc").Transaction(), {ID: "no-date", Ticker: "AAA", Units: 1}}

		holdings, err := service.ReconstructHoldings(broken, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2))

		assert.ErrorIs(t, err, apperrors.ErrMalformedLedgerEntry)
		assert.Nil(t, holdings)
	})

	t.Run("non-finite units", func(t *testing.T) {
		tx := testutil.NewTransaction("acc").WithUnits(math.NaN()).Transaction()

		_, err := service.ReconstructHoldings([]model.Transaction{tx}, testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 2))

		assert.ErrorIs(t, err, apperrors.ErrMalformedLedgerEntry)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := service.ReconstructHoldings(nil, testutil.Date(2023, 1, 2), testutil.Date(2023, 1, 1))

		assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
	})
}
