package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/retry"
	"github.com/ndewijer/invest-tracker/internal/yahoo"
)

// PriceService maintains the equity close history from Yahoo Finance.
type PriceService struct {
	prices      PriceHistory
	coverage    SyncCoverage
	yahooClient yahoo.Client
	policy      retry.Policy
	now         func() time.Time
	log         zerolog.Logger
}

// NewPriceService creates a new PriceService.
func NewPriceService(prices PriceHistory, coverage SyncCoverage, yahooClient yahoo.Client, policy retry.Policy, log zerolog.Logger) *PriceService {
	return &PriceService{
		prices:      prices,
		coverage:    coverage,
		yahooClient: yahooClient,
		policy:      policy,
		now:         time.Now,
		log:         log.With().Str("component", "prices").Logger(),
	}
}

// WithClock replaces the clock used to determine "today".
func (s *PriceService) WithClock(now func() time.Time) *PriceService {
	s.now = now
	return s
}

// GetPrice returns the close in force on date and its currency.
func (s *PriceService) GetPrice(ctx context.Context, ticker string, date time.Time) (float64, string, error) {
	p, err := s.prices.GetPriceAsOf(ctx, ticker, date)
	if err != nil {
		return 0, "", err
	}
	return p.Close, p.Currency, nil
}

// AppendSince downloads the closes of ticker between since (less a week of
// reach-back, so a weekend start still has an as-of close) and today that have
// not been downloaded before. Days before the earliest downloaded day are
// fetched too, so a backdated purchase gets its history.
//
// Transient Yahoo failures are retried under the service policy; exhausting the
// retries returns apperrors.ErrProviderUnavailable.
//
// Returns the number of new closes stored.
func (s *PriceService) AppendSince(ctx context.Context, ticker string, since time.Time) (int, error) {
	today := model.Day(s.now())
	want := wantedSpan(since, today)
	return syncSpans(ctx, s.coverage, model.SourcePrices, ticker, want, today, func(ctx context.Context, span model.DateSpan) (time.Time, int, error) {
		return s.fetchSpan(ctx, ticker, span)
	})
}

// fetchSpan downloads and stores the closes of ticker within span.
func (s *PriceService) fetchSpan(ctx context.Context, ticker string, span model.DateSpan) (time.Time, int, error) {
	var raw yahoo.Response
	res := s.policy.Do(ctx, func(ctx context.Context) error {
		resp, err := s.yahooClient.QueryYahooSymbolByDateRange(ctx, ticker, span.From, span.To)
		if errors.Is(err, apperrors.ErrProviderTransient) {
			return retry.Retryable(err)
		}
		raw = resp
		return err
	})
	if !res.OK() {
		if res.Outcome == retry.Exhausted {
			return time.Time{}, 0, fmt.Errorf("%w: yahoo %s after %d attempts: %w", apperrors.ErrProviderUnavailable, ticker, res.Attempts, res.Err)
		}
		return time.Time{}, 0, res.Err
	}

	if len(raw.Chart.Result) > 0 && len(raw.Chart.Result[0].Timestamp) == 0 {
		return time.Time{}, 0, nil
	}
	chart, err := s.yahooClient.ParseChart(raw)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to parse chart for %s: %w", ticker, err)
	}

	currency := strings.ToUpper(chart.Currency)
	points := make([]model.PricePoint, 0, len(chart.Indicators))
	var last time.Time
	for _, ind := range chart.Indicators {
		if ind.Date.Before(span.From) || ind.Date.After(span.To) {
			continue
		}
		points = append(points, model.PricePoint{
			Ticker:   ticker,
			Date:     ind.Date,
			Close:    round(ind.PriceClose),
			Currency: currency,
		})
		if ind.Date.After(last) {
			last = ind.Date
		}
	}

	inserted, err := s.prices.InsertPrices(ctx, points)
	if err != nil {
		return time.Time{}, 0, err
	}
	s.log.Debug().Str("ticker", ticker).Int("added", inserted).Time("from", span.From).Time("to", span.To).Msg("price history updated")
	return last, inserted, nil
}
