/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  The simulation itself never fails; these errors come from parsing
  configuration and from the store.

ERROR CATEGORIES:
  1. Parse errors - Malformed dates, months, statuses
  2. Lookup errors - Missing firms or account types

USAGE:
    if errors.Is(err, generic.ErrInvalidYearMonth) {
        // 400 Bad Request
    }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidYearMonth is returned for months not in YYYY-MM form.
	ErrInvalidYearMonth = errors.New("invalid year-month")

	// ErrInvalidStatus is returned for an unknown account status.
	ErrInvalidStatus = errors.New("invalid account status")

	// ErrInvalidInput is returned for structurally invalid payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFirmNotFound is returned when a referenced firm doesn't exist.
	ErrFirmNotFound = errors.New("firm not found")

	// ErrAccountTypeNotFound is returned when a referenced account type doesn't exist.
	ErrAccountTypeNotFound = errors.New("account type not found")

	// ErrHolidayNotFound is returned when deleting an unknown holiday.
	ErrHolidayNotFound = errors.New("holiday not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError names the field and raw value that failed to parse.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidYearMonth) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFirmNotFound) ||
		errors.Is(err, ErrAccountTypeNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}
