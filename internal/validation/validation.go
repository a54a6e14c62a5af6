// Package validation checks API input before it reaches the services.
package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ValidateDateRange rejects a window whose end precedes its start.
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end_date %s before start_date %s",
			apperrors.ErrInvalidDateRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}
