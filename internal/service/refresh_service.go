package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// ProviderSync appends newly published provider data for one key (ticker or currency).
type ProviderSync interface {
	AppendSince(ctx context.Context, key string, since time.Time) (int, error)
}

// RefreshService is the incremental scheduler. It decides which part of an
// account's series is missing, recomputes it and merges it into the store.
type RefreshService struct {
	accounts AccountStore
	ledger   Ledger
	store    SeriesStore
	engine   *ValuationEngine
	prices   ProviderSync
	fx       ProviderSync
	workers  int
	locks    *accountLocks
	now      func() time.Time
	log      zerolog.Logger
}

// NewRefreshService creates a new RefreshService. workers bounds the number of
// tickers synced and valued concurrently; values below one mean one.
func NewRefreshService(
	accounts AccountStore,
	ledger Ledger,
	store SeriesStore,
	engine *ValuationEngine,
	prices ProviderSync,
	fx ProviderSync,
	workers int,
	log zerolog.Logger,
) *RefreshService {
	if workers < 1 {
		workers = 1
	}
	return &RefreshService{
		accounts: accounts,
		ledger:   ledger,
		store:    store,
		engine:   engine,
		prices:   prices,
		fx:       fx,
		workers:  workers,
		locks:    newAccountLocks(),
		now:      time.Now,
		log:      log.With().Str("component", "refresh").Logger(),
	}
}

// WithClock replaces the clock used to determine "today".
func (s *RefreshService) WithClock(now func() time.Time) *RefreshService {
	s.now = now
	return s
}

// State classifies the persisted series of an account:
//   - UNINITIALIZED when nothing is persisted
//   - UP_TO_DATE when the last row is today and no row is incomplete
//   - STALE otherwise, from the day after the last row or the first incomplete row,
//     whichever is earlier
func (s *RefreshService) State(ctx context.Context, accountID string) (model.AccountState, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return model.AccountState{}, err
	}
	return s.state(ctx, accountID, model.Day(s.now()))
}

func (s *RefreshService) state(ctx context.Context, accountID string, today time.Time) (model.AccountState, error) {
	state := model.AccountState{AccountID: accountID, State: model.StateUninitialized}

	last, ok, err := s.store.GetLastDate(ctx, accountID)
	if err != nil {
		return model.AccountState{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}
	if !ok {
		return state, nil
	}
	state.LastDate = last

	var staleFrom time.Time
	if last.Before(today) {
		staleFrom = last.AddDate(0, 0, 1)
	}
	incomplete, ok, err := s.store.GetFirstIncompleteDate(ctx, accountID)
	if err != nil {
		return model.AccountState{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}
	if ok && (staleFrom.IsZero() || incomplete.Before(staleFrom)) {
		staleFrom = incomplete
	}

	if staleFrom.IsZero() {
		state.State = model.StateUpToDate
		return state, nil
	}
	state.State = model.StateStale
	state.StaleFrom = staleFrom
	return state, nil
}

// Refresh brings one account's series up to today.
//
// Provider data is synced and tickers are valued on a bounded worker pool. A ticker
// that fails keeps its cells unknown for the affected days and is reported in the
// returned RefreshReport; the run itself still succeeds and the rows that depend on
// it are flagged incomplete, to be revisited by the next run. A malformed ledger
// aborts the run before anything is written.
//
// Runs for the same account are serialized.
func (s *RefreshService) Refresh(ctx context.Context, accountID string) (model.RefreshReport, error) {
	unlock := s.locks.lock(accountID)
	defer unlock()

	report := model.RefreshReport{AccountID: accountID, Tickers: []model.TickerOutcome{}}
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return report, err
	}

	transactions, err := s.ledger.GetTransactionsForAccount(ctx, accountID)
	if err != nil {
		return report, fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	today := model.Day(s.now())
	state, err := s.state(ctx, accountID, today)
	if err != nil {
		return report, err
	}
	report.PreviousState = state

	if state.State == model.StateUpToDate || len(transactions) == 0 {
		return report, nil
	}

	from := firstTransactionDate(transactions)
	if state.State == model.StateStale && state.StaleFrom.After(from) {
		from = state.StaleFrom
	}
	if from.After(today) {
		return report, nil
	}

	holdings, err := ReconstructHoldings(transactions, from, today)
	if err != nil {
		return report, fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	valuations, outcomes := s.valueAll(ctx, holdings, from, today)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.Tickers = outcomes

	raw := buildRows(accountID, holdings, valuations, from, today)

	existing, err := s.store.GetSeries(ctx, accountID, time.Time{}, today)
	if err != nil {
		return report, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}

	kinds := make(map[string]model.AssetKind, len(holdings))
	quotedFrom := make(map[string]time.Time)
	for i, h := range holdings {
		kinds[h.Ticker] = h.Kind
		if quoted := valuations[i].QuotedFrom; !quoted.IsZero() {
			quotedFrom[h.Ticker] = quoted
		}
	}
	aggregated := Aggregate(existing.CombineFirst(raw), kinds, quotedFrom, transactions, from)

	written, err := s.store.MergeSeries(ctx, aggregated)
	if err != nil {
		return report, fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}
	report.From = from
	report.To = today
	report.RowsWritten = written

	event := s.log.Info()
	if report.Failed() > 0 {
		event = s.log.Warn()
	}
	event.
		Str("account_id", accountID).
		Str("previous_state", state.State.String()).
		Time("from", from).
		Time("to", today).
		Int("rows", written).
		Int("tickers_ok", report.Succeeded()).
		Int("tickers_failed", report.Failed()).
		Msg("account refreshed")

	return report, nil
}

// valueAll syncs provider data and values every holding on the worker pool.
// Failures are recorded per ticker and never cancel the other workers.
func (s *RefreshService) valueAll(ctx context.Context, holdings []HoldingsSeries, from, today time.Time) ([]TickerValuation, []model.TickerOutcome) {
	fxErrs := s.syncCurrencies(ctx, holdings)

	valuations := make([]TickerValuation, len(holdings))
	outcomes := make([]model.TickerOutcome, len(holdings))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, h := range holdings {
		g.Go(func() error {
			var errs []error
			priceSynced := true
			if h.Kind == model.KindEquity {
				if _, err := s.prices.AppendSince(ctx, h.Ticker, h.FirstDate); err != nil {
					errs = append(errs, fmt.Errorf("price sync: %w", err))
					priceSynced = false
				}
				if err := fxErrs[strings.ToUpper(h.Currency)]; err != nil {
					errs = append(errs, fmt.Errorf("fx sync: %w", err))
				}
			}

			v, err := s.engine.Value(ctx, h, from, today)
			if err != nil {
				errs = append(errs, err)
			}
			if !priceSynced {
				// Earlier closes may exist upstream.
				v.QuotedFrom = time.Time{}
			}
			valuations[i] = v

			outcome := model.TickerOutcome{Ticker: h.Ticker, Kind: h.Kind, Skipped: v.Skipped}
			if err := errors.Join(errs...); err != nil {
				outcome.Err = err
				s.log.Warn().Err(err).Str("ticker", h.Ticker).Str("kind", h.Kind.String()).Msg("ticker not fully valued")
			} else {
				outcome.OK = true
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	return valuations, outcomes
}

// syncCurrencies appends rates for every foreign currency held as equity, once per
// currency. Returns the sync error per currency.
func (s *RefreshService) syncCurrencies(ctx context.Context, holdings []HoldingsSeries) map[string]error {
	since := make(map[string]time.Time)
	for _, h := range holdings {
		currency := strings.ToUpper(h.Currency)
		if h.Kind != model.KindEquity || currency == model.BaseCurrency || currency == "" {
			continue
		}
		if first, ok := since[currency]; !ok || h.FirstDate.Before(first) {
			since[currency] = h.FirstDate
		}
	}

	var mu sync.Mutex
	errs := make(map[string]error)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for currency, first := range since {
		g.Go(func() error {
			if _, err := s.fx.AppendSince(ctx, currency, first); err != nil {
				s.log.Warn().Err(err).Str("currency", currency).Msg("exchange rate sync failed")
				mu.Lock()
				errs[currency] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// buildRows lays the per-ticker units and values out as dated rows. Cells where
// both units and value are unknown are left out.
func buildRows(accountID string, holdings []HoldingsSeries, valuations []TickerValuation, from, to time.Time) model.AccountSeries {
	series := model.AccountSeries{AccountID: accountID}
	for i, date := range model.DateRange(from, to) {
		row := model.HistoryRow{Date: date, Tickers: make(map[string]model.TickerCell)}
		for j, h := range holdings {
			cell := model.TickerCell{Units: h.At(date)}
			if values := valuations[j].Values; i < len(values) {
				cell.Value = values[i]
			}
			if cell.Units.Valid || cell.Value.Valid {
				row.Tickers[h.Ticker] = cell
			}
		}
		series.Rows = append(series.Rows, row)
	}
	return series
}

func firstTransactionDate(transactions []model.Transaction) time.Time {
	first := model.Day(transactions[0].Date)
	for _, t := range transactions[1:] {
		if d := model.Day(t.Date); d.Before(first) {
			first = d
		}
	}
	return first
}

// Invalidate removes the persisted rows of an account dated on or after from so
// the next refresh recomputes them. Returns the number of rows removed.
func (s *RefreshService) Invalidate(ctx context.Context, accountID string, from time.Time) (int64, error) {
	unlock := s.locks.lock(accountID)
	defer unlock()

	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return 0, err
	}
	removed, err := s.store.DeleteFrom(ctx, accountID, model.Day(from))
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("account_id", accountID).Time("from", model.Day(from)).Int64("rows", removed).Msg("history invalidated")
	return removed, nil
}

// RefreshAll refreshes every account in name order. A failing account is logged
// and skipped; the joined errors are returned with the reports of the others.
func (s *RefreshService) RefreshAll(ctx context.Context) ([]model.RefreshReport, error) {
	accounts, err := s.accounts.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })

	reports := make([]model.RefreshReport, 0, len(accounts))
	var errs []error
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.Refresh(ctx, a.ID)
		if err != nil {
			s.log.Error().Err(err).Str("account_id", a.ID).Msg("account refresh failed")
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}
