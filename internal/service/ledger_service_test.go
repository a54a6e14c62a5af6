package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/testutil"
)

type fixedRates map[string]float64

func (f fixedRates) Rate(_ context.Context, currency string, _ time.Time) (float64, error) {
	if currency == model.BaseCurrency {
		return 1, nil
	}
	r, ok := f[currency]
	if !ok {
		return 0, apperrors.ErrUnsupportedCurrency
	}
	return r, nil
}

const ledgerHeader = "account_id;date_of_purchase;operation_ticker;type_of_transaction_value;currency;number_of_units;price_of_one_unit;commission;yahoo_ticker;type_of_investment\n"

// TestLedgerService_ImportCSV covers ledger ingestion.
//
// WHY: total cost and units_after are derived once at import and read by every
// later refresh; a wrong fx date or ordering shows up in every cost chart.
func TestLedgerService_ImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("derives cost and running units", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		clock := testutil.NewClock(time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))
		refresh := testutil.NewTestRefreshService(t, db, clock, nil, nil)
		svc := testutil.NewTestLedgerService(t, db, fixedRates{"USD": 4.0}, refresh)
		account := testutil.NewAccount().Build(t, db)
		input := ledgerHeader +
			";2023-01-03;BUY AAPL;stocks;USD;10;12.5;3;AAPL;stock\n" +
			";2023-01-02;BUY CDR;stocks;PLN;4;100;1;CDR.WA;stock\n" +
			";2023-01-04;SELL CDR;stocks;PLN;-2;110;1;CDR.WA;stock\n"

		// Execute
		imported, err := svc.ImportCSV(ctx, account.ID, strings.NewReader(input))

		// Assert
		require.NoError(t, err)
		require.Len(t, imported, 3)
		assert.Equal(t, 4.0, imported[0].FxRate)
		assert.Equal(t, 503.0, imported[0].TotalCost)
		assert.Equal(t, 401.0, imported[1].TotalCost)

		stored, err := svc.GetTransactions(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, testutil.Date(2023, 1, 2), stored[0].Date)
		assert.Equal(t, 4.0, stored[0].UnitsAfter)
		assert.Equal(t, 14.0, stored[1].UnitsAfter)
		assert.Equal(t, 12.0, stored[2].UnitsAfter)
		assert.Equal(t, model.KindEquity, stored[2].Kind)
	})

	t.Run("invalidates history from the earliest imported date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		clock := testutil.NewClock(time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))
		refresh := testutil.NewTestRefreshService(t, db, clock, nil, nil)
		svc := testutil.NewTestLedgerService(t, db, fixedRates{}, refresh)
		account := testutil.NewAccount().Build(t, db)
		testutil.NewTransaction(account.ID).WithTicker("CASH").WithDate(testutil.Date(2023, 1, 1)).WithUnits(100).Build(t, db)
		_, err := refresh.Refresh(ctx, account.ID)
		require.NoError(t, err)
		testutil.AssertRowCount(t, db, "account_history", 10)

		_, err = svc.ImportCSV(ctx, account.ID, strings.NewReader(ledgerHeader+";2023-01-05;DEPOSIT;cash;PLN;50;1;0;CASH;cash\n"))
		require.NoError(t, err)
		testutil.AssertRowCount(t, db, "account_history", 4)

		_, err = refresh.Refresh(ctx, account.ID)
		require.NoError(t, err)
		last, ok := mustSeries(t, db, account.ID).Row(testutil.Date(2023, 1, 10))
		require.True(t, ok)
		assert.Equal(t, model.Known(150), last.AccountBalance)
	})

	t.Run("nothing is stored when a rate is missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		refresh := testutil.NewTestRefreshService(t, db, testutil.NewClock(time.Now()), nil, nil)
		svc := testutil.NewTestLedgerService(t, db, fixedRates{}, refresh)
		account := testutil.NewAccount().Build(t, db)

		_, err := svc.ImportCSV(ctx, account.ID, strings.NewReader(ledgerHeader+
			";2023-01-02;BUY;stocks;PLN;1;1;0;CDR.WA;stock\n"+
			";2023-01-02;BUY;stocks;CHF;1;1;0;NESN.SW;stock\n"))

		assert.ErrorIs(t, err, apperrors.ErrUnsupportedCurrency)
		testutil.AssertRowCount(t, db, "ledger_transaction", 0)
	})

	t.Run("malformed row rejects the file", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		refresh := testutil.NewTestRefreshService(t, db, testutil.NewClock(time.Now()), nil, nil)
		svc := testutil.NewTestLedgerService(t, db, fixedRates{}, refresh)
		account := testutil.NewAccount().Build(t, db)

		_, err := svc.ImportCSV(ctx, account.ID, strings.NewReader(ledgerHeader+";02/01/2023;BUY;stocks;PLN;1;1;0;X;stock\n"))

		assert.ErrorIs(t, err, apperrors.ErrMalformedLedgerEntry)
		testutil.AssertRowCount(t, db, "ledger_transaction", 0)
	})

	t.Run("unknown account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		refresh := testutil.NewTestRefreshService(t, db, testutil.NewClock(time.Now()), nil, nil)
		svc := testutil.NewTestLedgerService(t, db, fixedRates{}, refresh)

		_, err := svc.ImportCSV(ctx, testutil.MakeID(), strings.NewReader(ledgerHeader))

		assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}
