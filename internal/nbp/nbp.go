// Package nbp reads table A mid exchange rates published by Narodowy Bank Polski.
package nbp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/retry"
)

// DefaultBaseURL is the public NBP API host.
const DefaultBaseURL = "https://api.nbp.pl"

// MaxDateShifts bounds how many days a single-date lookup walks back over
// weekends and holidays before giving up.
const MaxDateShifts = 10

// RangeChunkDays is the widest range requested in one call.
const RangeChunkDays = 90

// FirstPublication is the first date table A is served for.
var FirstPublication = time.Date(2002, 1, 2, 0, 0, 0, 0, time.UTC)

// SupportedCurrencies lists the table A codes the tracker accepts.
var SupportedCurrencies = map[string]bool{
	"THB": true, "USD": true, "AUD": true, "HKD": true, "CAD": true, "NZD": true,
	"SGD": true, "EUR": true, "HUF": true, "CHF": true, "GBP": true, "UAH": true,
	"JPY": true, "CZK": true, "DKK": true, "ISK": true, "NOK": true, "SEK": true,
	"RON": true, "BGN": true, "TRY": true, "ILS": true, "CLP": true, "PHP": true,
	"MXN": true, "MYR": true, "IDR": true, "INR": true, "KRW": true, "CNY": true,
}

// errNoPublication is a 404: NBP published nothing for the requested date or range.
var errNoPublication = errors.New("no rate published")

type ratesResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string  `json:"no"`
		EffectiveDate string  `json:"effectiveDate"`
		Mid           float64 `json:"mid"`
	} `json:"rates"`
}

// Client fetches exchange rates from the NBP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	policy     retry.Policy
}

// NewClient creates an NBP client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, policy retry.Policy) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		policy:     policy,
	}
}

// Supported reports whether code can be converted to the base currency.
func Supported(code string) bool {
	code = strings.ToUpper(code)
	return code == model.BaseCurrency || SupportedCurrencies[code]
}

// RateOn returns the mid rate in force on date. When nothing was published on
// date the lookup shifts one day back and retries, at most MaxDateShifts times.
// Transient HTTP failures are retried under the client's policy. The base
// currency always returns 1.0 without I/O.
func (c *Client) RateOn(ctx context.Context, code string, date time.Time) (model.ExchangeRate, error) {
	code = strings.ToUpper(code)
	date = model.Day(date)
	if code == model.BaseCurrency {
		return model.ExchangeRate{Currency: code, Date: date, Rate: 1.0}, nil
	}
	if !SupportedCurrencies[code] {
		return model.ExchangeRate{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedCurrency, code)
	}

	// Walking back over a calendar gap is not rate limited; only getWithRetry backs off.
	shift := retry.Policy{MaxRetries: MaxDateShifts, Base: time.Millisecond, Max: time.Millisecond}

	lookup := date
	var rate model.ExchangeRate
	res := shift.Do(ctx, func(ctx context.Context) error {
		var resp ratesResponse
		err := c.getWithRetry(ctx, fmt.Sprintf("/api/exchangerates/rates/a/%s/%s/", strings.ToLower(code), lookup.Format(model.DateLayout)), &resp)
		if errors.Is(err, errNoPublication) {
			lookup = lookup.AddDate(0, 0, -1)
			return retry.Retryable(err)
		}
		if err != nil {
			return err
		}
		if len(resp.Rates) == 0 {
			return fmt.Errorf("%w: empty rates for %s on %s", apperrors.ErrDataUnavailable, code, lookup.Format(model.DateLayout))
		}
		rate = model.ExchangeRate{Currency: code, Date: lookup, Rate: resp.Rates[0].Mid}
		return nil
	})
	if !res.OK() {
		if res.Outcome == retry.Exhausted {
			return model.ExchangeRate{}, fmt.Errorf("%w: no %s rate within %d days before %s", apperrors.ErrProviderUnavailable, code, MaxDateShifts, date.Format(model.DateLayout))
		}
		return model.ExchangeRate{}, res.Err
	}
	return rate, nil
}

// RatesBetween returns every published rate for code between start and end inclusive,
// requesting at most RangeChunkDays per call. Ranges without publications are empty,
// not an error.
func (c *Client) RatesBetween(ctx context.Context, code string, start, end time.Time) ([]model.ExchangeRate, error) {
	code = strings.ToUpper(code)
	if !SupportedCurrencies[code] {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedCurrency, code)
	}
	start, end = model.Day(start), model.Day(end)
	if start.Before(FirstPublication) {
		start = FirstPublication
	}
	if end.Before(start) {
		return nil, nil
	}

	var out []model.ExchangeRate
	for chunkStart := start; !chunkStart.After(end); chunkStart = chunkStart.AddDate(0, 0, RangeChunkDays+1) {
		chunkEnd := chunkStart.AddDate(0, 0, RangeChunkDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		var resp ratesResponse
		path := fmt.Sprintf("/api/exchangerates/rates/a/%s/%s/%s/", strings.ToLower(code), chunkStart.Format(model.DateLayout), chunkEnd.Format(model.DateLayout))
		err := c.getWithRetry(ctx, path, &resp)
		if errors.Is(err, errNoPublication) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, r := range resp.Rates {
			date, err := model.ParseDate(r.EffectiveDate)
			if err != nil {
				return nil, fmt.Errorf("nbp returned malformed effectiveDate: %w", err)
			}
			out = append(out, model.ExchangeRate{Currency: code, Date: date, Rate: r.Mid})
		}
	}
	return out, nil
}

// getWithRetry performs one logical GET, retrying transient failures. A 404 is
// returned as errNoPublication without retrying.
func (c *Client) getWithRetry(ctx context.Context, path string, out *ratesResponse) error {
	res := c.policy.Do(ctx, func(ctx context.Context) error {
		return c.get(ctx, path, out)
	})
	if res.Outcome == retry.Exhausted {
		return fmt.Errorf("%w: nbp %s after %d attempts: %w", apperrors.ErrProviderUnavailable, path, res.Attempts, res.Err)
	}
	return res.Err
}

func (c *Client) get(ctx context.Context, path string, out *ratesResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?format=json", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("%w: %w", apperrors.ErrProviderTransient, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNoPublication
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return retry.Retryable(fmt.Errorf("%w: nbp returned status %d", apperrors.ErrProviderTransient, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("nbp returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode nbp response: %w", err)
	}
	return nil
}
