package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/invest-tracker/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined test data instead of making actual API calls.
type MockYahooClient struct {
	mu sync.Mutex
	// MockResponse is the response to return from query methods
	MockResponse yahoo.Response
	// MockErrors are returned by successive queries before MockResponse is served
	MockErrors []error
	// QueryCount tracks how many times a query method was called
	QueryCount int
	// LastStart and LastEnd record the range of the last query
	LastStart, LastEnd time.Time
}

// NewMockYahooClient creates a new mock Yahoo client with an empty chart.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{}
}

// QueryYahooSymbolByDateRange returns the next queued error, or MockResponse.
func (m *MockYahooClient) QueryYahooSymbolByDateRange(_ context.Context, _ string, start, end time.Time) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	m.LastStart, m.LastEnd = start, end
	if len(m.MockErrors) > 0 {
		err := m.MockErrors[0]
		m.MockErrors = m.MockErrors[1:]
		return yahoo.Response{}, err
	}
	return m.MockResponse, nil
}

// ParseChart delegates to the real ParseChart method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseChart(yahooResult yahoo.Response) (yahoo.PriceChart, error) {
	return yahoo.NewFinanceClient("", time.Second).ParseChart(yahooResult)
}

// WithErrors queues errors returned by the next queries.
func (m *MockYahooClient) WithErrors(errs ...error) *MockYahooClient {
	m.MockErrors = append(m.MockErrors, errs...)
	return m
}

// WithResponse configures the mock to return the specified response.
func (m *MockYahooClient) WithResponse(resp yahoo.Response) *MockYahooClient {
	m.MockResponse = resp
	return m
}

// Queries returns how many queries were made.
func (m *MockYahooClient) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueryCount
}

// CreateMockYahooResponse builds a chart with one daily bar per close starting at
// start. A nil close is emitted as a null bar.
func CreateMockYahooResponse(symbol, currency string, start time.Time, closes ...*float64) yahoo.Response {
	timestamps := make([]int64, len(closes))
	volumes := make([]*int64, len(closes))
	for i := range closes {
		// Yahoo stamps daily bars at the exchange open, not midnight.
		timestamps[i] = start.AddDate(0, 0, i).Add(14*time.Hour + 30*time.Minute).Unix()
		volume := int64(1000000 + i*10000)
		volumes[i] = &volume
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:   symbol,
						Currency: currency,
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{
							{
								Open:   closes,
								High:   closes,
								Low:    closes,
								Close:  closes,
								Volume: volumes,
							},
						},
					},
				},
			},
		},
	}
}

// F returns a pointer to v, for building chart fixtures.
func F(v float64) *float64 {
	return &v
}
