package model

import "time"

// Transaction is one immutable ledger event. Units are signed: positive for buys,
// negative for sells.
type Transaction struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId"`
	Date            time.Time `json:"date"`
	OperationTicker string    `json:"operationTicker"`
	AssetClass      string    `json:"assetClass"`
	Currency        string    `json:"currency"`
	Units           float64   `json:"units"`
	UnitPrice       float64   `json:"unitPrice"`
	Commission      float64   `json:"commission"`
	Ticker          string    `json:"ticker"`
	InvestmentType  string    `json:"investmentType"`
	Kind            AssetKind `json:"kind"`

	// Derived at ingestion.
	FxRate     float64 `json:"fxRate"`
	TotalCost  float64 `json:"totalCost"`
	UnitsAfter float64 `json:"unitsAfter"`
}

// CostContribution is the amount the transaction adds to the account's cumulative cost.
// Sells only contribute their commission so cumulative cost never decreases.
func (t Transaction) CostContribution() float64 {
	if t.Units > 0 {
		return t.TotalCost
	}
	return t.Commission
}
