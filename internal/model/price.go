package model

import "time"

// PricePoint is one daily close of an equity or fund.
type PricePoint struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Currency string    `json:"currency"`
}

// ExchangeRate is the central-bank mid rate of one unit of Currency in the base currency.
type ExchangeRate struct {
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	Rate     float64   `json:"rate"`
}

// BondSeries is the coupon schedule of one bond series. Rates[0] is year index 1.
type BondSeries struct {
	Series string    `json:"series" yaml:"series"`
	Rates  []float64 `json:"rates" yaml:"rates"`
}

// BaseCurrency is the currency every value is reported in.
const BaseCurrency = "PLN"
