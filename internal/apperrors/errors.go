package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPriceNotFound indicates no stored close price at or before a date for a ticker.
	ErrPriceNotFound = errors.New("price for ticker/date not found")

	// ErrExchangeRateNotFound indicates no record for a specific currency and date combination
	ErrExchangeRateNotFound = errors.New("exchange rate for currency/date not found")
)

// Valuation errors describe why a ticker could not be valued for a date.
var (
	// ErrDataUnavailable indicates that a price, rate or coupon required for a date
	// or year index is missing from the provider data.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrBondRateMissing indicates that the coupon schedule has no rate for the
	// required series/year index. It wraps ErrDataUnavailable.
	ErrBondRateMissing = fmt.Errorf("%w: bond rate missing", ErrDataUnavailable)

	// ErrScheduleInvalidState indicates a valuation date before the purchase date.
	// The value for such a date is undefined, never zero.
	ErrScheduleInvalidState = errors.New("valuation date precedes purchase date")
)

// Provider errors are returned by the external price and rate feeds.
var (
	// ErrProviderTransient marks a single failed provider call that may succeed on retry
	// (network failure, 429, 5xx).
	ErrProviderTransient = errors.New("provider transient failure")

	// ErrProviderUnavailable indicates that retries against a provider were exhausted.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrSymbolNotFound indicates that a symbol lookup returned no results
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUnsupportedCurrency indicates a currency the FX feed does not publish.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Ledger errors abort the whole account recomputation.
var (
	// ErrMalformedLedgerEntry indicates a transaction with an unparseable date or number.
	ErrMalformedLedgerEntry = errors.New("malformed ledger entry")

	// ErrEmptyLedger indicates an import file without any transaction rows.
	ErrEmptyLedger = errors.New("ledger contains no transactions")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")
)

// Operation errors wrap failures of data access layers.
var (
	// ErrFailedToRetrieveHistory indicates the series store could not be read.
	ErrFailedToRetrieveHistory = errors.New("failed to retrieve account history")

	// ErrFailedToRetrieveTransactions indicates the ledger could not be read.
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")

	// ErrRefreshFailed indicates the incremental refresh of an account aborted.
	ErrRefreshFailed = errors.New("account refresh failed")
)

// MalformedEntryError pins a ledger problem to a line and field.
type MalformedEntryError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedEntryError) Error() string {
	msg := fmt.Sprintf("%s: line %d, field %q, value %q", ErrMalformedLedgerEntry, e.Line, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrMalformedLedgerEntry and the cause.
func (e *MalformedEntryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedLedgerEntry}
	}
	return []error{ErrMalformedLedgerEntry, e.Err}
}
