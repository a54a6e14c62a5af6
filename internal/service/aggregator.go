package service

import (
	"sort"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// Aggregate computes account_balance, total_cost and the incomplete flag for the
// rows of series dated on or after from.
//
// Value columns are forward-filled independently across the whole series, so rows
// before from only seed the fill. Values still unknown after the fill count as zero
// in the balance. A row is incomplete when a valued kind (equity, bond) is held on
// that date but its own value cell is unknown, unless the row predates the
// ticker's first available close in quotedFrom.
//
// total_cost is recomputed from the full ledger for every row: the sum of the cost
// contributions of all transactions dated on or before the row date. A buy adds
// its total cost; a sell adds only its commission. Sell proceeds are never
// subtracted, so total_cost does not decrease.
//
// Ticker cells are copied unchanged; forward-filled values are only used for the
// balance so that later data can still fill the gaps.
//
// Parameters:
//   - series: Persisted rows combined with the freshly valued cells
//   - kinds: Asset kind per ticker column
//   - quotedFrom: First available close per equity ticker; may be nil
//   - transactions: The account's full ledger
//   - from: First row to emit
func Aggregate(series model.AccountSeries, kinds map[string]model.AssetKind, quotedFrom map[string]time.Time, transactions []model.Transaction, from time.Time) model.AccountSeries {
	from = model.Day(from)

	ordered := make([]model.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return model.Day(ordered[i].Date).Before(model.Day(ordered[j].Date))
	})

	out := model.AccountSeries{AccountID: series.AccountID}
	lastValue := make(map[string]float64)
	var cumulativeCost float64
	next := 0

	for _, row := range series.Rows {
		for next < len(ordered) && !model.Day(ordered[next].Date).After(row.Date) {
			cumulativeCost += ordered[next].CostContribution()
			next++
		}

		incomplete := false
		for ticker, cell := range row.Tickers {
			if cell.Value.Valid {
				lastValue[ticker] = cell.Value.Value
				continue
			}
			kind := kinds[ticker]
			if !cell.Units.Valid || (kind != model.KindEquity && kind != model.KindBond) {
				continue
			}
			if quoted, ok := quotedFrom[ticker]; ok && row.Date.Before(quoted) {
				continue
			}
			incomplete = true
		}

		if row.Date.Before(from) {
			continue
		}

		// Sum in ticker order so the float result does not depend on map iteration.
		tickers := make([]string, 0, len(lastValue))
		for ticker := range lastValue {
			tickers = append(tickers, ticker)
		}
		sort.Strings(tickers)
		var balance float64
		for _, ticker := range tickers {
			balance += lastValue[ticker]
		}

		aggregated := model.HistoryRow{
			Date:           row.Date,
			AccountBalance: model.Known(round(balance)),
			TotalCost:      model.Known(round(cumulativeCost)),
			Incomplete:     incomplete,
			Tickers:        make(map[string]model.TickerCell, len(row.Tickers)),
		}
		for ticker, cell := range row.Tickers {
			aggregated.Tickers[ticker] = cell
		}
		out.Rows = append(out.Rows, aggregated)
	}

	return out
}
