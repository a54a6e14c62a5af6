package validation

import (
	"strings"

	"github.com/ndewijer/invest-tracker/internal/api/request"
)

// ValidateCreateAccount checks the name and owner of a new account.
func ValidateCreateAccount(req request.CreateAccountRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	} else if len(req.Name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if len(req.Owner) > 100 {
		errors["owner"] = "owner must be 100 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
