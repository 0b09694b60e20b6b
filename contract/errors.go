/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All engine error kinds in one place. Every invalid input or illegal
  state transition fails deterministically with one of these classified
  errors; nothing is silently swallowed and the engine never retries.

ERROR CATEGORIES:
  1. Input errors - malformed dates and non-positive amounts
  2. Transition errors - operations on terminal installments/contracts
  3. NotFound - raised by the store, propagated unchanged

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, contract.ErrAlreadySettled) { ... }

SEE ALSO:
  - ledger.go: Raises transition errors
  - calendar: Defines ErrInvalidDate for date input
*/
package contract

import (
	"errors"
	"fmt"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate re-exports the calendar sentinel so API layers can
	// classify every engine error through this package.
	ErrInvalidDate = calendar.ErrInvalidDate

	// ErrInvalidAmount is returned when a non-positive monetary input is
	// supplied where a positive value is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAlreadySettled is returned when a payment is attempted on an
	// installment that is already fully settled.
	ErrAlreadySettled = errors.New("installment already settled")

	// ErrAlreadyCompleted is returned when cancellation is attempted on a
	// completed contract.
	ErrAlreadyCompleted = errors.New("contract already completed")

	// ErrNotFound is returned when a referenced contract, installment or
	// customer does not exist in the store.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError reports which amount was rejected and why.
type InvalidAmountError struct {
	Field  string
	Amount Money
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Amount, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// NotFoundError reports which entity was missing.
type NotFoundError struct {
	Kind string // "contract", "installment", "customer"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// or an illegal transition, as opposed to a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrAlreadyCompleted)
}

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
