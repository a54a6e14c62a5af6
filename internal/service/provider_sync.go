package service

import (
	"context"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// reachBackDays is how far before the first wanted day a download starts, so
// that a weekend or holiday start still has an as-of value.
const reachBackDays = 7

// spanFetcher downloads and stores one span. It returns the latest date it stored
// (zero when nothing was published) and the number of new rows.
type spanFetcher func(ctx context.Context, span model.DateSpan) (time.Time, int, error)

// syncSpans downloads the parts of want that the recorded coverage of
// (source, key) does not yet hold and records what was fetched.
//
// A span reaching today only counts as covered up to the last published day, so
// values published later that day are picked up by the next sync.
func syncSpans(ctx context.Context, coverage SyncCoverage, source, key string, want model.DateSpan, today time.Time, fetch spanFetcher) (int, error) {
	if want.Empty() {
		return 0, nil
	}

	covered, ok, err := coverage.GetCoverage(ctx, source, key)
	if err != nil {
		return 0, err
	}
	missing := []model.DateSpan{want}
	if ok {
		missing = covered.Missing(want)
	}

	added := 0
	for _, span := range missing {
		last, n, err := fetch(ctx, span)
		if err != nil {
			return added, err
		}
		added += n

		done := span
		if !span.To.Before(today) {
			done.To = span.From.AddDate(0, 0, -1)
			if !last.IsZero() {
				done.To = model.Day(last)
			}
		}
		if err := coverage.ExtendCoverage(ctx, source, key, done); err != nil {
			return added, err
		}
	}
	return added, nil
}

// wantedSpan is the range a sync starting at since needs: since minus the
// reach-back, up to today.
func wantedSpan(since, today time.Time) model.DateSpan {
	return model.Span(model.Day(since).AddDate(0, 0, -reachBackDays), today)
}
