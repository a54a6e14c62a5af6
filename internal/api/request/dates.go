package request

import (
	"fmt"
	"time"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// ParseDateParam parses a query date given as YYYY-MM-DD or RFC3339.
// An empty value yields def.
func ParseDateParam(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	if d, err := model.ParseDate(value); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s %q: expected YYYY-MM-DD", name, value)
	}
	return model.Day(t), nil
}

// DateRangeParams holds the optional history window of a request.
type DateRangeParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// ParseDateRange reads start_date and end_date. A missing start means the
// beginning of the series, a missing end means today.
func ParseDateRange(startParam, endParam string, today time.Time) (DateRangeParams, error) {
	start, err := ParseDateParam("start_date", startParam, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return DateRangeParams{}, err
	}
	end, err := ParseDateParam("end_date", endParam, model.Day(today))
	if err != nil {
		return DateRangeParams{}, err
	}
	return DateRangeParams{StartDate: start, EndDate: end}, nil
}
