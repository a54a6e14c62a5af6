package model

import (
	"encoding/json"
	"time"
)

// ScheduleState is the incremental refresh state of one account.
type ScheduleState int

const (
	StateUninitialized ScheduleState = iota
	StateUpToDate
	StateStale
)

func (s ScheduleState) String() string {
	switch s {
	case StateUpToDate:
		return "UP_TO_DATE"
	case StateStale:
		return "STALE"
	default:
		return "UNINITIALIZED"
	}
}

// MarshalText encodes the state by name.
func (s ScheduleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AccountState describes what part of an account's series must be recomputed.
// StaleFrom is set only for StateStale. LastDate is the last persisted row date.
type AccountState struct {
	AccountID string        `json:"accountId"`
	State     ScheduleState `json:"state"`
	StaleFrom time.Time     `json:"staleFrom,omitzero"`
	LastDate  time.Time     `json:"lastDate,omitzero"`
}

// TickerOutcome is the per-ticker result of one refresh run.
type TickerOutcome struct {
	Ticker  string    `json:"ticker"`
	Kind    AssetKind `json:"kind"`
	OK      bool      `json:"ok"`
	Skipped bool      `json:"skipped,omitempty"` // no valuation strategy for the kind
	Err     error     `json:"-"`
}

// MarshalJSON adds the error text.
func (o TickerOutcome) MarshalJSON() ([]byte, error) {
	type alias TickerOutcome
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(o)}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// RefreshReport summarizes one incremental refresh of an account.
type RefreshReport struct {
	AccountID     string          `json:"accountId"`
	PreviousState AccountState    `json:"previousState"`
	From          time.Time       `json:"from,omitzero"`
	To            time.Time       `json:"to,omitzero"`
	RowsWritten   int             `json:"rowsWritten"`
	Tickers       []TickerOutcome `json:"tickers"`
}

// Succeeded counts tickers valued without error.
func (r RefreshReport) Succeeded() int {
	n := 0
	for _, t := range r.Tickers {
		if t.OK {
			n++
		}
	}
	return n
}

// Failed counts tickers skipped because of an error.
func (r RefreshReport) Failed() int {
	return len(r.Tickers) - r.Succeeded()
}

// Breakdown is the value and cumulative cost of one asset class at a date.
type Breakdown struct {
	AssetClass string  `json:"assetClass"`
	Value      float64 `json:"value"`
	Cost       float64 `json:"cost"`
}
