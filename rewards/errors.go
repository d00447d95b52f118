/*
errors.go - Error types for the rewards engine

ERROR CATEGORIES:
  1. Query errors  - invalid month name, invalid or unknown customer
  2. Input errors  - negative purchase amounts, malformed tier rules
  3. Store errors  - wrapped with context by the selector and service

All query and input failures are deterministic functions of the input.
Nothing here is retried.

USAGE:
  if errors.Is(err, rewards.ErrInvalidMonth) {
      // 400
  }
  var nf *rewards.CustomerNotFoundError
  if errors.As(err, &nf) {
      // 404, nf.ID
  }
*/
package rewards

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMonth is returned when a month name is not one of the twelve
	// canonical English month names.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrInvalidCustomerID is returned for customer ids that are not positive.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrCustomerNotFound is returned when a customer id has no store record.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidAmount is returned when recording a negative purchase amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRule is returned for a tier rule that cannot be evaluated.
	ErrInvalidRule = errors.New("invalid tier rule")

	// ErrInvalidInput covers malformed payloads that fail field validation.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending value
// =============================================================================

// InvalidMonthError reports the month string that failed to parse.
type InvalidMonthError struct {
	Month string
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month: %q", e.Month)
}

func (e *InvalidMonthError) Unwrap() error { return ErrInvalidMonth }

// InvalidCustomerError reports a non-positive customer id.
type InvalidCustomerError struct {
	ID CustomerID
}

func (e *InvalidCustomerError) Error() string {
	return fmt.Sprintf("invalid customer id: %d", e.ID)
}

func (e *InvalidCustomerError) Unwrap() error { return ErrInvalidCustomerID }

// CustomerNotFoundError reports a customer id with no store record.
type CustomerNotFoundError struct {
	ID CustomerID
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer with id %d not found", e.ID)
}

func (e *CustomerNotFoundError) Unwrap() error { return ErrCustomerNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidCustomerID) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}
