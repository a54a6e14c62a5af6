package model

import "time"

// Provider sources tracked by coverage.
const (
	SourcePrices = "prices"
	SourceRates  = "rates"
)

// DateSpan is an inclusive range of calendar days. It is empty when To is
// before From.
type DateSpan struct {
	From time.Time
	To   time.Time
}

// Span returns the days from from to to, truncated to calendar days.
func Span(from, to time.Time) DateSpan {
	return DateSpan{From: Day(from), To: Day(to)}
}

// Empty reports whether the span holds no day.
func (s DateSpan) Empty() bool {
	return s.To.Before(s.From)
}

// Extend returns the smallest span holding both s and other.
func (s DateSpan) Extend(other DateSpan) DateSpan {
	switch {
	case other.Empty():
		return s
	case s.Empty():
		return other
	}
	out := s
	if other.From.Before(out.From) {
		out.From = other.From
	}
	if other.To.After(out.To) {
		out.To = other.To
	}
	return out
}

// Missing returns the spans that must be added to the covered span s so that
// it holds want, ascending. Each returned span touches s, so the union stays
// contiguous even when want lies entirely before or after s.
func (s DateSpan) Missing(want DateSpan) []DateSpan {
	if want.Empty() {
		return nil
	}
	if s.Empty() {
		return []DateSpan{want}
	}
	var out []DateSpan
	if want.From.Before(s.From) {
		out = append(out, DateSpan{From: want.From, To: s.From.AddDate(0, 0, -1)})
	}
	if want.To.After(s.To) {
		out = append(out, DateSpan{From: s.To.AddDate(0, 0, 1), To: want.To})
	}
	return out
}
