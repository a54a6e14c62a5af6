package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/testutil"
)

func row(date time.Time, cells map[string]model.TickerCell) model.HistoryRow {
	return model.HistoryRow{Date: date, Tickers: cells}
}

func cell(units, value *float64) model.TickerCell {
	var c model.TickerCell
	if units != nil {
		c.Units = model.Known(*units)
	}
	if value != nil {
		c.Value = model.Known(*value)
	}
	return c
}

// TestAggregate covers balance summation and the cumulative cost column.
//
// WHY: the balance is what the charts show; treating a gap as zero before the
// forward-fill would show a crash on every market holiday.
func TestAggregate(t *testing.T) {
	kinds := map[string]model.AssetKind{"AAA": model.KindEquity, "BBB": model.KindEquity, "CASH": model.KindCash}
	f := testutil.F

	t.Run("forward-fills each column before summing", func(t *testing.T) {
		// Setup
		series := model.AccountSeries{AccountID: "acc", Rows: []model.HistoryRow{
			row(testutil.Date(2023, 1, 1), map[string]model.TickerCell{"AAA": cell(f(1), f(100)), "CASH": cell(f(50), f(50))}),
			row(testutil.Date(2023, 1, 2), map[string]model.TickerCell{"CASH": cell(f(50), f(50))}),
			row(testutil.Date(2023, 1, 3), map[string]model.TickerCell{"AAA": cell(f(1), f(110)), "CASH": cell(f(20), f(20))}),
		}}

		// Execute
		out := service.Aggregate(series, kinds, nil, nil, testutil.Date(2023, 1, 1))

		// Assert
		require.Len(t, out.Rows, 3)
		assert.Equal(t, model.Known(150), out.Rows[0].AccountBalance)
		assert.Equal(t, model.Known(150), out.Rows[1].AccountBalance)
		assert.Equal(t, model.Known(130), out.Rows[2].AccountBalance)
		assert.False(t, out.Rows[1].Tickers["AAA"].Value.Valid, "forward-filled values are not written back")
	})

	t.Run("unknown values count as zero only in the sum and flag the row", func(t *testing.T) {
		series := model.AccountSeries{AccountID: "acc", Rows: []model.HistoryRow{
			row(testutil.Date(2023, 1, 1), map[string]model.TickerCell{"AAA": cell(f(1), nil), "CASH": cell(f(10), f(10))}),
		}}

		out := service.Aggregate(series, kinds, nil, nil, testutil.Date(2023, 1, 1))

		assert.Equal(t, model.Known(10), out.Rows[0].AccountBalance)
		assert.True(t, out.Rows[0].Incomplete)
	})

	t.Run("held days before the first close do not flag the row", func(t *testing.T) {
		series := model.AccountSeries{AccountID: "acc", Rows: []model.HistoryRow{
			row(testutil.Date(2022, 12, 31), map[string]model.TickerCell{"AAA": cell(f(1), nil)}),
			row(testutil.Date(2023, 1, 1), map[string]model.TickerCell{"AAA": cell(f(1), nil)}),
			row(testutil.Date(2023, 1, 2), map[string]model.TickerCell{"AAA": cell(f(1), f(100))}),
			row(testutil.Date(2023, 1, 3), map[string]model.TickerCell{"AAA": cell(f(1), nil)}),
		}}
		quotedFrom := map[string]time.Time{"AAA": testutil.Date(2023, 1, 2)}

		out := service.Aggregate(series, kinds, quotedFrom, nil, testutil.Date(2022, 12, 31))

		require.Len(t, out.Rows, 4)
		assert.False(t, out.Rows[0].Incomplete)
		assert.False(t, out.Rows[1].Incomplete)
		assert.Equal(t, model.Known(0), out.Rows[1].AccountBalance)
		assert.False(t, out.Rows[2].Incomplete)
		assert.True(t, out.Rows[3].Incomplete, "a gap after the first close still flags the row")
	})

	t.Run("rows before from only seed the fill", func(t *testing.T) {
		series := model.AccountSeries{AccountID: "acc", Rows: []model.HistoryRow{
			row(testutil.Date(2023, 1, 1), map[string]model.TickerCell{"AAA": cell(f(1), f(100))}),
			row(testutil.Date(2023, 1, 2), map[string]model.TickerCell{"AAA": cell(f(1), nil), "BBB": cell(f(2), f(40))}),
		}}

		out := service.Aggregate(series, kinds, nil, nil, testutil.Date(2023, 1, 2))

		require.Len(t, out.Rows, 1)
		assert.Equal(t, model.Known(140), out.Rows[0].AccountBalance)
	})

	t.Run("cumulative cost never decreases", func(t *testing.T) {
		txs := []model.Transaction{
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 1)).WithUnits(10).WithPrice(50).WithCommission(5).Transaction(),
			testutil.NewTransaction("acc").WithTicker("AAA").WithDate(testutil.Date(2023, 1, 3)).WithUnits(-5).WithPrice(60).WithCommission(2).Transaction(),
			testutil.NewTransaction("acc").WithTicker("BBB").WithDate(testutil.Date(2023, 1, 4)).WithUnits(1).WithPrice(10).Transaction(),
		}
		var rows []model.HistoryRow
		for _, d := range model.DateRange(testutil.Date(2023, 1, 1), testutil.Date(2023, 1, 5)) {
			rows = append(rows, row(d, map[string]model.TickerCell{}))
		}

		out := service.Aggregate(model.AccountSeries{AccountID: "acc", Rows: rows}, kinds, nil, txs, testutil.Date(2023, 1, 1))

		want := []float64{505, 505, 507, 517, 517}
		for i, r := range out.Rows {
			assert.Equal(t, model.Known(want[i]), r.TotalCost, r.Date)
			if i > 0 {
				assert.GreaterOrEqual(t, r.TotalCost.Value, out.Rows[i-1].TotalCost.Value)
			}
		}
	})

	t.Run("cash and unknown kinds never flag a row", func(t *testing.T) {
		series := model.AccountSeries{AccountID: "acc", Rows: []model.HistoryRow{
			row(testutil.Date(2023, 1, 1), map[string]model.TickerCell{"CASH": cell(f(1), nil), "ZZZ": cell(f(1), nil)}),
		}}

		out := service.Aggregate(series, map[string]model.AssetKind{"CASH": model.KindCash}, nil, nil, testutil.Date(2023, 1, 1))

		assert.False(t, out.Rows[0].Incomplete)
		assert.Equal(t, model.Known(0), out.Rows[0].AccountBalance)
	})
}
