package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// TickerValuation is the daily market value of one ticker in the base currency.
// Values[i] belongs to Start+i days; unknown cells are days the ticker is not held
// or could not be valued.
//
// QuotedFrom is the date of the earliest stored close of an equity; held days
// before it have no close to value them with.
type TickerValuation struct {
	Ticker     string
	Kind       model.AssetKind
	Start      time.Time
	Values     []model.Amount
	QuotedFrom time.Time
	Skipped    bool
}

// ValuationEngine attaches market values to holdings series. It dispatches on the
// asset kind resolved at ingestion.
type ValuationEngine struct {
	prices       PriceHistory
	rates        RateHistory
	bonds        BondRateTable
	gapTolerance time.Duration
}

// NewValuationEngine creates an engine over the stored provider data.
// gapTolerance bounds how old an as-of close or rate may be for a date.
func NewValuationEngine(prices PriceHistory, rates RateHistory, bonds BondRateTable, gapTolerance time.Duration) *ValuationEngine {
	return &ValuationEngine{
		prices:       prices,
		rates:        rates,
		bonds:        bonds,
		gapTolerance: gapTolerance,
	}
}

// Value computes the ticker's value for every day in [start, end].
//
// Strategies by kind:
//   - Equity: units × close as of date × fx(currency, date), both as-of (<=) lookups
//     no older than the gap tolerance
//   - Bond: units × BondUnitPrice since the ticker's first purchase
//   - Cash: units, already in the base currency
//   - Unknown: skipped, every value left unknown
//
// Days that cannot be valued stay unknown. Held days before an equity's first
// stored close stay unknown without being reported. When any other held day is
// left unknown the
// values computed so far are still returned together with an error wrapping
// apperrors.ErrDataUnavailable (or the provider error), so callers can keep the
// partial result and flag the ticker.
func (e *ValuationEngine) Value(ctx context.Context, h HoldingsSeries, start, end time.Time) (TickerValuation, error) {
	start, end = model.Day(start), model.Day(end)
	days := model.DaysBetween(start, end) + 1
	if days <= 0 {
		return TickerValuation{}, fmt.Errorf("%w: %s after %s", apperrors.ErrInvalidDateRange, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	out := TickerValuation{
		Ticker: h.Ticker,
		Kind:   h.Kind,
		Start:  start,
		Values: make([]model.Amount, days),
	}

	switch h.Kind {
	case model.KindCash:
		for i := range out.Values {
			if units := h.At(start.AddDate(0, 0, i)); units.Valid {
				out.Values[i] = model.Known(round(units.Value))
			}
		}
		return out, nil
	case model.KindBond:
		err := e.valueBond(ctx, h, &out)
		return out, err
	case model.KindEquity:
		err := e.valueEquity(ctx, h, &out, end)
		return out, err
	default:
		out.Skipped = true
		return out, nil
	}
}

func (e *ValuationEngine) valueEquity(ctx context.Context, h HoldingsSeries, out *TickerValuation, end time.Time) error {
	prices, err := e.prices.GetPriceSeries(ctx, h.Ticker, out.Start, end)
	if err != nil {
		return fmt.Errorf("failed to load prices for %s: %w", h.Ticker, err)
	}
	if len(prices) == 0 {
		return fmt.Errorf("%w: no prices stored for %s", apperrors.ErrDataUnavailable, h.Ticker)
	}
	out.QuotedFrom = prices[0].Date

	currency := strings.ToUpper(prices[len(prices)-1].Currency)
	if currency == "" {
		currency = strings.ToUpper(h.Currency)
	}

	var rates []model.ExchangeRate
	if currency != model.BaseCurrency {
		rates, err = e.rates.GetRateSeries(ctx, currency, out.Start, end)
		if err != nil {
			return fmt.Errorf("failed to load %s rates for %s: %w", currency, h.Ticker, err)
		}
		if len(rates) == 0 {
			return fmt.Errorf("%w: no %s exchange rates stored for %s", apperrors.ErrDataUnavailable, currency, h.Ticker)
		}
	}

	priceCursor, rateCursor := -1, -1
	missing := 0
	for i := range out.Values {
		date := out.Start.AddDate(0, 0, i)
		units := h.At(date)
		if !units.Valid {
			continue
		}

		priceCursor = advance(priceCursor, len(prices), func(j int) time.Time { return prices[j].Date }, date)
		if priceCursor < 0 {
			continue
		}
		if e.tooOld(prices[priceCursor].Date, date) {
			missing++
			continue
		}

		fx := 1.0
		if currency != model.BaseCurrency {
			rateCursor = advance(rateCursor, len(rates), func(j int) time.Time { return rates[j].Date }, date)
			if rateCursor < 0 || e.tooOld(rates[rateCursor].Date, date) {
				missing++
				continue
			}
			fx = rates[rateCursor].Rate
		}

		out.Values[i] = model.Known(round(units.Value * prices[priceCursor].Close * fx))
	}

	if missing > 0 {
		return fmt.Errorf("%w: %s has %d held days without a price or rate within %s", apperrors.ErrDataUnavailable, h.Ticker, missing, e.gapTolerance)
	}
	return nil
}

func (e *ValuationEngine) valueBond(ctx context.Context, h HoldingsSeries, out *TickerValuation) error {
	cache := make(map[int]float64)
	rateFor := func(yearIndex int) (float64, error) {
		if r, ok := cache[yearIndex]; ok {
			return r, nil
		}
		r, err := e.bonds.GetRate(ctx, h.Ticker, yearIndex)
		if err != nil {
			return 0, err
		}
		cache[yearIndex] = r
		return r, nil
	}

	var errs []error
	missing := 0
	for i := range out.Values {
		date := out.Start.AddDate(0, 0, i)
		units := h.At(date)
		if !units.Valid {
			continue
		}

		price, err := BondUnitPrice(model.DaysBetween(h.FirstDate, date), rateFor)
		switch {
		case errors.Is(err, apperrors.ErrScheduleInvalidState):
			continue
		case errors.Is(err, apperrors.ErrDataUnavailable):
			if missing == 0 {
				errs = append(errs, err)
			}
			missing++
			continue
		case err != nil:
			return fmt.Errorf("failed to price bond %s on %s: %w", h.Ticker, date.Format(model.DateLayout), err)
		}
		out.Values[i] = model.Known(round(units.Value * price))
	}

	if missing > 0 {
		return fmt.Errorf("bond %s has %d held days without a coupon rate: %w", h.Ticker, missing, errors.Join(errs...))
	}
	return nil
}

// tooOld reports whether an as-of observation is outside the gap tolerance.
func (e *ValuationEngine) tooOld(observed, date time.Time) bool {
	if e.gapTolerance <= 0 {
		return false
	}
	return date.Sub(observed) > e.gapTolerance
}

// advance moves an as-of cursor over an ascending series to the last index dated
// on or before date. It returns -1 while no entry qualifies.
func advance(cursor, n int, dateAt func(int) time.Time, date time.Time) int {
	for cursor+1 < n && !dateAt(cursor+1).After(date) {
		cursor++
	}
	return cursor
}
