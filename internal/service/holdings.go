package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// HoldingsSeries is the daily unit count of one ticker over a date range.
// Units[i] belongs to Start+i days and is unknown before the ticker's first transaction.
type HoldingsSeries struct {
	Ticker     string
	Kind       model.AssetKind
	Currency   string
	AssetClass string
	FirstDate  time.Time
	Start      time.Time
	Units      []model.Amount
}

// At returns the units held on date.
func (h HoldingsSeries) At(date time.Time) model.Amount {
	i := model.DaysBetween(h.Start, date)
	if i < 0 || i >= len(h.Units) {
		return model.Amount{}
	}
	return h.Units[i]
}

// ReconstructHoldings derives per-ticker daily unit counts from an account's ledger.
//
// Each transaction is a step event at its date that sets the holding to the running
// sum of signed units for its ticker up to and including that event. Days between
// events carry the last count forward; days before a ticker's first transaction stay
// unknown. Same-day transactions are applied in ledger order and the day ends with
// the terminal total.
//
// Parameters:
//   - transactions: The account's ledger; re-sorted stably by date
//   - start, end: Inclusive output range; events before start still count
//
// Returns one series per ticker sorted by ticker. Transactions with an empty ticker
// are ignored. Any transaction with a zero date or a non-finite number fails the whole
// reconstruction with apperrors.ErrMalformedLedgerEntry.
func ReconstructHoldings(transactions []model.Transaction, start, end time.Time) ([]HoldingsSeries, error) {
	start, end = model.Day(start), model.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s after %s", apperrors.ErrInvalidDateRange, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	for _, t := range transactions {
		if err := validateLedgerEntry(t); err != nil {
			return nil, err
		}
	}

	ordered := make([]model.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return model.Day(ordered[i].Date).Before(model.Day(ordered[j].Date))
	})

	byTicker := make(map[string][]model.Transaction)
	var tickers []string
	for _, t := range ordered {
		if t.Ticker == "" {
			continue
		}
		if _, ok := byTicker[t.Ticker]; !ok {
			tickers = append(tickers, t.Ticker)
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}
	sort.Strings(tickers)

	days := model.DaysBetween(start, end) + 1
	out := make([]HoldingsSeries, 0, len(tickers))
	for _, ticker := range tickers {
		events := byTicker[ticker]
		first := events[0]
		series := HoldingsSeries{
			Ticker:     ticker,
			Kind:       first.Kind,
			Currency:   first.Currency,
			AssetClass: first.AssetClass,
			FirstDate:  model.Day(first.Date),
			Start:      start,
			Units:      make([]model.Amount, days),
		}

		var running float64
		held := model.Amount{}
		next := 0
		for i := 0; i < days; i++ {
			date := start.AddDate(0, 0, i)
			for next < len(events) && !model.Day(events[next].Date).After(date) {
				running += events[next].Units
				held = model.Known(running)
				next++
			}
			series.Units[i] = held
		}
		out = append(out, series)
	}

	return out, nil
}

func validateLedgerEntry(t model.Transaction) error {
	if t.Date.IsZero() {
		return &apperrors.MalformedEntryError{Field: "date_of_purchase", Value: t.ID, Err: fmt.Errorf("transaction %s has no date", t.ID)}
	}
	for field, v := range map[string]float64{"number_of_units": t.Units, "price_of_one_unit": t.UnitPrice, "commission": t.Commission} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &apperrors.MalformedEntryError{Field: field, Value: fmt.Sprint(v), Err: fmt.Errorf("transaction %s", t.ID)}
		}
	}
	return nil
}
