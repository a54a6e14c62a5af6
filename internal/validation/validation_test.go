package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/api/request"
	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/testutil"
	"github.com/ndewijer/invest-tracker/internal/validation"
)

// TestValidateCreateAccount covers the account body checks.
//
// WHY: handlers report the field map to clients, so every rule must name its field.
func TestValidateCreateAccount(t *testing.T) {
	t.Run("accepts a named account", func(t *testing.T) {
		err := validation.ValidateCreateAccount(request.CreateAccountRequest{Name: "IKE", Owner: "anna"})

		assert.NoError(t, err)
	})

	t.Run("reports every failing field", func(t *testing.T) {
		// Execute
		err := validation.ValidateCreateAccount(request.CreateAccountRequest{
			Name:  "  ",
			Owner: strings.Repeat("x", 101),
		})

		// Assert
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "name is required", verr.Fields["name"])
		assert.Contains(t, verr.Fields, "owner")
		assert.Equal(t, "name: name is required; owner: owner must be 100 characters or less", err.Error())
	})
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, validation.ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.ErrorIs(t, validation.ValidateUUID("nope"), apperrors.ErrInvalidUUID)
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, validation.ValidateDateRange(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 1)))
	assert.ErrorIs(t, validation.ValidateDateRange(testutil.Date(2024, 1, 2), testutil.Date(2024, 1, 1)), apperrors.ErrInvalidDateRange)
}
