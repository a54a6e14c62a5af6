package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/repository"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	account := testutil.NewAccount().WithName("IKE").Build(t, db)
type AccountBuilder struct {
	ID    string
	Name  string
	Owner string
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		ID:    MakeID(),
		Name:  MakeAccountName("Test Account"),
		Owner: "tester",
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.Name = name
	return b
}

// WithOwner sets the owner key.
func (b *AccountBuilder) WithOwner(owner string) *AccountBuilder {
	b.Owner = owner
	return b
}

// Build creates the account in the database.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	account := model.Account{
		ID:        b.ID,
		Name:      b.Name,
		Owner:     b.Owner,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := repository.NewAccountRepository(db).InsertAccount(context.Background(), account); err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	return account
}

// TransactionBuilder provides a fluent interface for ledger rows. Kind is resolved
// from the ticker and TotalCost defaults to units × price × fx + commission.
//
// Example usage:
//
//	testutil.NewTransaction(account.ID).
//	    WithTicker("AAPL").
//	    WithDate(testutil.Date(2023, 1, 2)).
//	    WithUnits(10).
//	    WithPrice(130).
//	    WithCurrency("USD", 4.40).
//	    Build(t, db)
type TransactionBuilder struct {
	tx           model.Transaction
	totalCostSet bool
}

// NewTransaction creates a TransactionBuilder with defaults: a one unit PLN equity buy.
func NewTransaction(accountID string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:              MakeID(),
		AccountID:       accountID,
		Date:            Date(2023, 1, 2),
		OperationTicker: "BUY",
		AssetClass:      "stocks",
		Currency:        model.BaseCurrency,
		Units:           1,
		UnitPrice:       100,
		Ticker:          "CDR.WA",
		InvestmentType:  "stock",
		FxRate:          1,
	}}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.tx.ID = id
	return b
}

// WithDate sets the transaction date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.tx.Date = model.Day(date)
	return b
}

// WithTicker sets the instrument key.
func (b *TransactionBuilder) WithTicker(ticker string) *TransactionBuilder {
	b.tx.Ticker = ticker
	return b
}

// WithAssetClass sets the asset class label.
func (b *TransactionBuilder) WithAssetClass(class string) *TransactionBuilder {
	b.tx.AssetClass = class
	return b
}

// WithUnits sets the signed unit count.
func (b *TransactionBuilder) WithUnits(units float64) *TransactionBuilder {
	b.tx.Units = units
	return b
}

// WithPrice sets the unit price.
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.tx.UnitPrice = price
	return b
}

// WithCommission sets the commission.
func (b *TransactionBuilder) WithCommission(commission float64) *TransactionBuilder {
	b.tx.Commission = commission
	return b
}

// WithCurrency sets the currency and its rate into the base currency.
func (b *TransactionBuilder) WithCurrency(currency string, fx float64) *TransactionBuilder {
	b.tx.Currency = currency
	b.tx.FxRate = fx
	return b
}

// WithTotalCost overrides the derived total cost.
func (b *TransactionBuilder) WithTotalCost(cost float64) *TransactionBuilder {
	b.tx.TotalCost = cost
	b.totalCostSet = true
	return b
}

// Transaction returns the row without storing it.
func (b *TransactionBuilder) Transaction() model.Transaction {
	t := b.tx
	t.Kind = model.ResolveKind(t.Ticker)
	if !b.totalCostSet {
		t.TotalCost = t.Units*t.UnitPrice*t.FxRate + t.Commission
	}
	return t
}

// Build stores the transaction.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := b.Transaction()
	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}
	return tx
}

// SeedPrices stores one close per entry of closes, keyed by YYYY-MM-DD.
func SeedPrices(t *testing.T, db *sql.DB, ticker, currency string, closes map[string]float64) {
	t.Helper()

	points := make([]model.PricePoint, 0, len(closes))
	for day, price := range closes {
		points = append(points, model.PricePoint{Ticker: ticker, Date: MustDate(t, day), Close: price, Currency: currency})
	}
	if _, err := repository.NewPriceRepository(db).InsertPrices(context.Background(), points); err != nil {
		t.Fatalf("Failed to seed prices: %v", err)
	}
}

// SeedRates stores one exchange rate per entry of rates, keyed by YYYY-MM-DD.
func SeedRates(t *testing.T, db *sql.DB, currency string, rates map[string]float64) {
	t.Helper()

	out := make([]model.ExchangeRate, 0, len(rates))
	for day, rate := range rates {
		out = append(out, model.ExchangeRate{Currency: currency, Date: MustDate(t, day), Rate: rate})
	}
	if _, err := repository.NewExchangeRateRepository(db).InsertRates(context.Background(), out); err != nil {
		t.Fatalf("Failed to seed rates: %v", err)
	}
}

// SeedCoverage records [from, to] as already downloaded for (source, key).
func SeedCoverage(t *testing.T, db *sql.DB, source, key string, from, to time.Time) {
	t.Helper()

	err := repository.NewCoverageRepository(db).ExtendCoverage(context.Background(), source, key, model.Span(from, to))
	if err != nil {
		t.Fatalf("Failed to seed coverage: %v", err)
	}
}

// SeedBondRates stores the coupon schedule of a bond series.
func SeedBondRates(t *testing.T, db *sql.DB, series string, rates ...float64) {
	t.Helper()

	err := repository.NewBondRateRepository(db).ReplaceSeries(context.Background(), []model.BondSeries{{Series: series, Rates: rates}})
	if err != nil {
		t.Fatalf("Failed to seed bond rates: %v", err)
	}
}
