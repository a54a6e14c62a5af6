package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/invest-tracker/internal/model"
)

func isoDay(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestDateSpan_Missing covers which provider ranges still need downloading.
//
// WHY: a backdated purchase needs history before everything already stored, and
// a hole left between two downloads would never be revisited.
func TestDateSpan_Missing(t *testing.T) {
	covered := model.Span(isoDay("2023-01-10"), isoDay("2023-01-20"))

	tests := []struct {
		name string
		want model.DateSpan
		out  []model.DateSpan
	}{
		{"inside the covered span", model.Span(isoDay("2023-01-12"), isoDay("2023-01-20")), nil},
		{"tail only", model.Span(isoDay("2023-01-12"), isoDay("2023-01-25")), []model.DateSpan{
			model.Span(isoDay("2023-01-21"), isoDay("2023-01-25")),
		}},
		{"head and tail", model.Span(isoDay("2023-01-01"), isoDay("2023-01-25")), []model.DateSpan{
			model.Span(isoDay("2023-01-01"), isoDay("2023-01-09")),
			model.Span(isoDay("2023-01-21"), isoDay("2023-01-25")),
		}},
		{"entirely before keeps the union contiguous", model.Span(isoDay("2022-12-01"), isoDay("2022-12-05")), []model.DateSpan{
			model.Span(isoDay("2022-12-01"), isoDay("2023-01-09")),
		}},
		{"entirely after keeps the union contiguous", model.Span(isoDay("2023-03-01"), isoDay("2023-03-02")), []model.DateSpan{
			model.Span(isoDay("2023-01-21"), isoDay("2023-03-02")),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, covered.Missing(tt.want))
		})
	}

	t.Run("nothing covered yet", func(t *testing.T) {
		want := model.Span(isoDay("2023-01-01"), isoDay("2023-01-02"))
		assert.Equal(t, []model.DateSpan{want}, model.DateSpan{From: isoDay("2023-01-02"), To: isoDay("2023-01-01")}.Missing(want))
	})
}

func TestDateSpan_Extend(t *testing.T) {
	a := model.Span(isoDay("2023-01-10"), isoDay("2023-01-20"))

	assert.Equal(t, model.Span(isoDay("2023-01-01"), isoDay("2023-01-20")), a.Extend(model.Span(isoDay("2023-01-01"), isoDay("2023-01-09"))))
	assert.Equal(t, a, a.Extend(model.DateSpan{From: isoDay("2023-02-01"), To: isoDay("2023-01-01")}))
	assert.True(t, model.DateSpan{From: isoDay("2023-01-02"), To: isoDay("2023-01-01")}.Empty())
}
