package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Amount is a nullable numeric cell. The zero value is unknown, which is distinct
// from a known zero.
type Amount struct {
	Value float64
	Valid bool
}

// Known returns a defined Amount.
func Known(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// Or returns the value, or def when unknown.
func (a Amount) Or(def float64) float64 {
	if !a.Valid {
		return def
	}
	return a.Value
}

// MarshalJSON encodes unknown as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts a number or null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = Known(v)
	return nil
}

// TickerCell holds the per-ticker columns of a history row.
type TickerCell struct {
	Units Amount `json:"units"`
	Value Amount `json:"value"`
}

// HistoryRow is one date of an account's historical series.
type HistoryRow struct {
	Date           time.Time             `json:"date"`
	AccountBalance Amount                `json:"accountBalance"`
	TotalCost      Amount                `json:"totalCost"`
	Incomplete     bool                  `json:"incomplete"`
	Tickers        map[string]TickerCell `json:"tickers"`
}

// Settled reports whether the row carries a final balance that later merges must keep.
func (r HistoryRow) Settled() bool {
	return r.AccountBalance.Valid && !r.Incomplete
}

func (r HistoryRow) clone() HistoryRow {
	out := r
	out.Tickers = make(map[string]TickerCell, len(r.Tickers))
	for k, v := range r.Tickers {
		out.Tickers[k] = v
	}
	return out
}

// AccountSeries is the daily series of one account, rows ascending by date and unique per date.
type AccountSeries struct {
	AccountID string       `json:"accountId"`
	Rows      []HistoryRow `json:"rows"`
}

// Empty reports whether the series has no rows.
func (s AccountSeries) Empty() bool {
	return len(s.Rows) == 0
}

// LastDate returns the most recent row date.
func (s AccountSeries) LastDate() (time.Time, bool) {
	if len(s.Rows) == 0 {
		return time.Time{}, false
	}
	return s.Rows[len(s.Rows)-1].Date, true
}

// Row returns the row for date.
func (s AccountSeries) Row(date time.Time) (HistoryRow, bool) {
	date = Day(date)
	i := sort.Search(len(s.Rows), func(i int) bool { return !s.Rows[i].Date.Before(date) })
	if i < len(s.Rows) && s.Rows[i].Date.Equal(date) {
		return s.Rows[i], true
	}
	return HistoryRow{}, false
}

// Tickers returns every ticker with a column in the series, sorted.
func (s AccountSeries) Tickers() []string {
	seen := make(map[string]struct{})
	for _, row := range s.Rows {
		for t := range row.Tickers {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FirstIncomplete returns the earliest row flagged incomplete.
func (s AccountSeries) FirstIncomplete() (time.Time, bool) {
	for _, row := range s.Rows {
		if row.Incomplete || !row.AccountBalance.Valid {
			return row.Date, true
		}
	}
	return time.Time{}, false
}

// CombineFirst merges incoming into s. Cells already known in s are kept and only
// unknown cells are filled from incoming. A balance is replaced only while the
// existing row is not settled. Neither input is modified.
func (s AccountSeries) CombineFirst(incoming AccountSeries) AccountSeries {
	byDate := make(map[time.Time]HistoryRow, len(s.Rows)+len(incoming.Rows))
	for _, row := range s.Rows {
		byDate[row.Date] = row.clone()
	}

	for _, in := range incoming.Rows {
		cur, ok := byDate[in.Date]
		if !ok {
			byDate[in.Date] = in.clone()
			continue
		}

		for ticker, inCell := range in.Tickers {
			cell := cur.Tickers[ticker]
			if !cell.Units.Valid {
				cell.Units = inCell.Units
			}
			if !cell.Value.Valid {
				cell.Value = inCell.Value
			}
			cur.Tickers[ticker] = cell
		}
		if !cur.TotalCost.Valid {
			cur.TotalCost = in.TotalCost
		}
		if !cur.Settled() && in.AccountBalance.Valid {
			cur.AccountBalance = in.AccountBalance
			cur.Incomplete = in.Incomplete
		}
		byDate[in.Date] = cur
	}

	rows := make([]HistoryRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	accountID := s.AccountID
	if accountID == "" {
		accountID = incoming.AccountID
	}
	return AccountSeries{AccountID: accountID, Rows: rows}
}

// Between returns the rows with from <= date <= to.
func (s AccountSeries) Between(from, to time.Time) AccountSeries {
	from, to = Day(from), Day(to)
	out := AccountSeries{AccountID: s.AccountID}
	for _, row := range s.Rows {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
