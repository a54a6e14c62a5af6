package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
)

// NBPServer is an httptest fake of the NBP table A API.
type NBPServer struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls returns the number of requests served.
func (s *NBPServer) Calls() int {
	return int(s.calls.Load())
}

type nbpRate struct {
	EffectiveDate string  `json:"effectiveDate"`
	Mid           float64 `json:"mid"`
}

// NewNBPServer serves the single-date and range endpoints from rates, keyed by
// lower-case currency code and then YYYY-MM-DD. Dates without a rate answer 404
// like the real API does on holidays. The server is closed with the test.
func NewNBPServer(t *testing.T, rates map[string]map[string]float64) *NBPServer {
	t.Helper()

	s := &NBPServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)

		// /api/exchangerates/rates/a/{code}/{date}/ or .../{start}/{end}/
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/exchangerates/rates/a/"), "/"), "/")
		if len(parts) < 2 || len(parts) > 3 {
			http.NotFound(w, r)
			return
		}
		byDate := rates[strings.ToLower(parts[0])]
		start, end := parts[1], parts[1]
		if len(parts) == 3 {
			end = parts[2]
		}

		var out []nbpRate
		for date, mid := range byDate {
			if date >= start && date <= end {
				out = append(out, nbpRate{EffectiveDate: date, Mid: mid})
			}
		}
		if len(out) == 0 {
			http.NotFound(w, r)
			return
		}
		sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate < out[j].EffectiveDate })

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"table": "A",
			"code":  strings.ToUpper(parts[0]),
			"rates": out,
		})
	}))
	t.Cleanup(s.Close)
	return s
}

