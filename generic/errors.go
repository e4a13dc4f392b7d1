/*
errors.go - Centralized error types for the registry

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  The license package wraps these with structured errors carrying context.

ERROR CATEGORIES:
  1. Input errors - Malformed candidate or entity (never a business decision)
  2. Business blocks - Duplicate date, monthly quota exceeded
  3. Store errors - Missing rows, uniqueness violations

USAGE:
  if errors.Is(err, generic.ErrDuplicateDate) {
      // storage-level uniqueness fired: authoritative duplicate
  }

SEE ALSO:
  - license/errors.go: Structured errors wrapping these sentinels
  - api/handlers.go: HTTP status mapping via IsClientError / IsNotFound
*/
package generic

import (
	"errors"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed input: unparseable dates,
	// missing required fields, non-positive hours on a partial-day leave.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateDate is returned when an employee already has a leave
	// record on the same calendar date.
	ErrDuplicateDate = errors.New("leave already recorded on this date")

	// ErrLimitExceeded is returned when a submission would violate a
	// critical monthly quota.
	ErrLimitExceeded = errors.New("monthly limit exceeded")

	// ErrConfirmationRequired is returned when a submission carries
	// warnings that the caller has not explicitly confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrDuplicateFileNumber is returned when another employee already
	// uses the file number.
	ErrDuplicateFileNumber = errors.New("duplicate file number")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrLicenseNotFound is returned when a referenced leave record doesn't exist.
	ErrLicenseNotFound = errors.New("license not found")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the error is a business-rule or uniqueness block.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrDuplicateFileNumber)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrLicenseNotFound)
}
