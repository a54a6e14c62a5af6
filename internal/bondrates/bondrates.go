// Package bondrates loads treasury bond coupon schedules from YAML.
//
// The file lists one entry per series with the annual rate locked in for each
// year index, as fractions:
//
//	series:
//	  - series: EDO0132
//	    rates: [0.068, 0.0275, 0.0325]
//	  - series: COI0426
//	    rates: [0.0625]
package bondrates

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ndewijer/invest-tracker/internal/model"
)

type file struct {
	Series []model.BondSeries `yaml:"series"`
}

// LoadFile reads and validates a schedule file.
func LoadFile(path string) ([]model.BondSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bond rates file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a schedule.
func Parse(r io.Reader) ([]model.BondSeries, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode bond rates: %w", err)
	}

	seen := make(map[string]bool, len(f.Series))
	for i, s := range f.Series {
		s.Series = strings.ToUpper(strings.TrimSpace(s.Series))
		f.Series[i] = s
		if err := Validate(s); err != nil {
			return nil, err
		}
		if seen[s.Series] {
			return nil, fmt.Errorf("bond series %s listed twice", s.Series)
		}
		seen[s.Series] = true
	}
	return f.Series, nil
}

// Validate checks a series against its family's coupon year count.
func Validate(s model.BondSeries) error {
	family, ok := model.BondFamily(s.Series)
	if !ok {
		return fmt.Errorf("bond series %q has no known family prefix", s.Series)
	}
	if len(s.Rates) == 0 {
		return fmt.Errorf("bond series %s has no rates", s.Series)
	}
	if limit := model.BondFamilyYears[family]; len(s.Rates) > limit {
		return fmt.Errorf("bond series %s has %d rates, %s bonds run %d years", s.Series, len(s.Rates), family, limit)
	}
	for i, r := range s.Rates {
		if r < 0 || r >= 1 {
			return fmt.Errorf("bond series %s year %d: rate %v must be a fraction in [0, 1)", s.Series, i+1, r)
		}
	}
	return nil
}
