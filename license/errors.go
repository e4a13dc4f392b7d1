package license

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/license-registry/generic"
)

// =============================================================================
// STRUCTURED ERRORS - Wrap generic sentinels with domain context
// =============================================================================

// InvalidInputError is a caller-input error. It is never a business decision.
type InvalidInputError struct {
	Field  string
	Reason string
	Err    error // optional cause, e.g. generic.ErrEmployeeNotFound
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() []error {
	if e.Err != nil {
		return []error{generic.ErrInvalidInput, e.Err}
	}
	return []error{generic.ErrInvalidInput}
}

func invalid(field, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DuplicateDateError is returned by stores when the (employee, date)
// uniqueness constraint fires.
type DuplicateDateError struct {
	EmployeeID EmployeeID
	Date       generic.TimePoint
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("employee %s already has a leave record on %s", e.EmployeeID, e.Date)
}

func (e *DuplicateDateError) Unwrap() error {
	return generic.ErrDuplicateDate
}

// BlockedError carries a Blocked decision out of Registry.Submit.
type BlockedError struct {
	Decision Decision
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("submission blocked (%s): %s", e.Decision.Reason, strings.Join(e.Decision.Messages(), "; "))
}

func (e *BlockedError) Unwrap() error {
	if e.Decision.Reason == ReasonDuplicateDate {
		return generic.ErrDuplicateDate
	}
	return generic.ErrLimitExceeded
}

// ConfirmationRequiredError carries a Warned decision that the caller has
// not confirmed yet.
type ConfirmationRequiredError struct {
	Decision Decision
}

func (e *ConfirmationRequiredError) Error() string {
	return "confirmation required: " + strings.Join(e.Decision.Messages(), "; ")
}

func (e *ConfirmationRequiredError) Unwrap() error {
	return generic.ErrConfirmationRequired
}

// DecisionFromError extracts the decision carried by a Submit error.
func DecisionFromError(err error) (Decision, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked.Decision, true
	}
	var confirm *ConfirmationRequiredError
	if errors.As(err, &confirm) {
		return confirm.Decision, true
	}
	return Decision{}, false
}
