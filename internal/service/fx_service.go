package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// FxProvider is the central-bank rate feed.
type FxProvider interface {
	RateOn(ctx context.Context, code string, date time.Time) (model.ExchangeRate, error)
	RatesBetween(ctx context.Context, code string, start, end time.Time) ([]model.ExchangeRate, error)
}

// maxRateAge is how old a stored as-of rate may be before a live lookup is preferred.
const maxRateAge = 10 * 24 * time.Hour

// FxService resolves exchange rates into the base currency.
type FxService struct {
	rates    RateHistory
	coverage SyncCoverage
	provider FxProvider
	now      func() time.Time
	log      zerolog.Logger
}

// NewFxService creates a new FxService.
func NewFxService(rates RateHistory, coverage SyncCoverage, provider FxProvider, log zerolog.Logger) *FxService {
	return &FxService{
		rates:    rates,
		coverage: coverage,
		provider: provider,
		now:      time.Now,
		log:      log.With().Str("component", "fx").Logger(),
	}
}

// WithClock replaces the clock used to determine "today".
func (s *FxService) WithClock(now func() time.Time) *FxService {
	s.now = now
	return s
}

// Rate returns the rate of currency in force on date. The base currency is always
// 1.0. Stored history is used first; when it has nothing recent enough the
// provider is asked directly and the answer is stored. A stored live rate does
// not count towards the downloaded coverage of the currency.
func (s *FxService) Rate(ctx context.Context, currency string, date time.Time) (float64, error) {
	currency = strings.ToUpper(currency)
	date = model.Day(date)
	if currency == model.BaseCurrency {
		return 1.0, nil
	}

	stored, err := s.rates.GetRateAsOf(ctx, currency, date)
	if err == nil && date.Sub(stored.Date) <= maxRateAge {
		return stored.Rate, nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrExchangeRateNotFound) {
		return 0, err
	}

	live, err := s.provider.RateOn(ctx, currency, date)
	if err != nil {
		return 0, err
	}
	if _, err := s.rates.InsertRates(ctx, []model.ExchangeRate{live}); err != nil {
		s.log.Warn().Err(err).Str("currency", currency).Msg("failed to store live rate")
	}
	return live.Rate, nil
}

// AppendSince downloads every published rate of currency between since (less
// a week of reach-back) and today that has not been downloaded before. Rates
// stored by live lookups do not stop earlier gaps from being filled.
// Returns the number of new rates.
func (s *FxService) AppendSince(ctx context.Context, currency string, since time.Time) (int, error) {
	currency = strings.ToUpper(currency)
	if currency == model.BaseCurrency {
		return 0, nil
	}

	today := model.Day(s.now())
	want := wantedSpan(since, today)
	return syncSpans(ctx, s.coverage, model.SourceRates, currency, want, today, func(ctx context.Context, span model.DateSpan) (time.Time, int, error) {
		published, err := s.provider.RatesBetween(ctx, currency, span.From, span.To)
		if err != nil {
			return time.Time{}, 0, err
		}
		var last time.Time
		for _, rate := range published {
			if rate.Date.After(last) && !rate.Date.After(span.To) {
				last = rate.Date
			}
		}
		n, err := s.rates.InsertRates(ctx, published)
		if err != nil {
			return time.Time{}, 0, err
		}
		s.log.Debug().Str("currency", currency).Int("added", n).Time("from", span.From).Time("to", span.To).Msg("exchange rates updated")
		return last, n, nil
	})
}
