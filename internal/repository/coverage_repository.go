package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// CoverageRepository records which days each provider download has covered,
// per source and key (ticker or currency).
type CoverageRepository struct {
	db *sql.DB
}

// NewCoverageRepository creates a new CoverageRepository.
func NewCoverageRepository(db *sql.DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

// GetCoverage returns the covered span of key, and false when nothing was
// downloaded for it yet.
func (r *CoverageRepository) GetCoverage(ctx context.Context, source, key string) (model.DateSpan, bool, error) {
	var fromStr, toStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT covered_from, covered_to
		FROM provider_coverage
		WHERE source = ? AND key = ?
	`, source, key).Scan(&fromStr, &toStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DateSpan{}, false, nil
	}
	if err != nil {
		return model.DateSpan{}, false, fmt.Errorf("failed to query %s coverage of %s: %w", source, key, err)
	}

	from, err := ParseTime(fromStr)
	if err != nil {
		return model.DateSpan{}, false, err
	}
	to, err := ParseTime(toStr)
	if err != nil {
		return model.DateSpan{}, false, err
	}
	return model.DateSpan{From: from, To: to}, true, nil
}

// ExtendCoverage widens the covered span of key to include span. Callers only
// pass spans that touch the current coverage, so the result has no holes.
func (r *CoverageRepository) ExtendCoverage(ctx context.Context, source, key string, span model.DateSpan) error {
	if span.Empty() {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO provider_coverage (source, key, covered_from, covered_to)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source, key) DO UPDATE SET
			covered_from = MIN(provider_coverage.covered_from, excluded.covered_from),
			covered_to = MAX(provider_coverage.covered_to, excluded.covered_to)
	`, source, key, formatDate(span.From), formatDate(span.To))
	if err != nil {
		return fmt.Errorf("failed to extend %s coverage of %s: %w", source, key, err)
	}
	return nil
}
