package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
)

// DefaultBaseURL is the public Yahoo Finance chart host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is the subset of the Yahoo API used to maintain price history.
type Client interface {
	QueryYahooSymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error)
	ParseChart(yahooResult Response) (PriceChart, error)
}

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a Yahoo Finance client against baseURL.
// An empty baseURL selects DefaultBaseURL.
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
//
// The method performs validation to ensure:
//   - A result is present
//   - Timestamp data is present
//   - Close price data is present and aligned with the timestamps
//
// Bars with a null close are skipped; other null fields are read as zero.
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no chart result returned")
	}
	result := yahooResult.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return PriceChart{}, fmt.Errorf("no price data returned")
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return PriceChart{}, fmt.Errorf("no close prices returned")
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("mismatched data lengths")
	}

	indicators := make([]Indicators, 0, len(result.Timestamp))
	for i, v := range result.Timestamp {
		if quote.Close[i] == nil {
			continue
		}
		ts := time.Unix(v, 0).UTC()
		indicators = append(indicators, Indicators{
			Date:       time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			PriceClose: *quote.Close[i],
			PriceOpen:  floatAt(quote.Open, i),
			PriceHigh:  floatAt(quote.High, i),
			PriceLow:   floatAt(quote.Low, i),
			Volume:     intAt(quote.Volume, i),
		})
	}

	return PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
		Indicators:       indicators,
	}, nil
}

// GetIndicatorForDate searches for price data matching a specific calendar date.
func (c PriceChart) GetIndicatorForDate(target time.Time) (Indicators, bool) {
	targetDay := target.UTC().Truncate(24 * time.Hour)
	for _, ind := range c.Indicators {
		if ind.Date.Equal(targetDay) {
			return ind, true
		}
	}
	return Indicators{}, false
}

// QueryYahooSymbolByDateRange fetches daily bars for symbol between startDate and endDate inclusive.
//
// Errors wrap apperrors.ErrProviderTransient when the failure is worth retrying
// (network error, 429, 5xx) and apperrors.ErrSymbolNotFound for unknown symbols.
func (c *FinanceClient) QueryYahooSymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		url.PathEscape(symbol),
		startDate.Unix(),
		endDate.AddDate(0, 0, 1).Unix(),
	)
	result, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return Response{}, err
	}
	if len(result.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("%w: no results returned for symbol %s", apperrors.ErrSymbolNotFound, symbol)
	}

	return result, nil
}

// queryYahoo executes a chart request and decodes the envelope.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", apperrors.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, fmt.Errorf("%w: yahoo returned status %d", apperrors.ErrProviderTransient, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", apperrors.ErrProviderTransient, err)
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("failed to decode yahoo response (status %d): %w", resp.StatusCode, err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("%w: yahoo error %s: %s", apperrors.ErrSymbolNotFound, response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}

func floatAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func intAt(values []*int64, i int) int64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}
