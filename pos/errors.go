/*
errors.go - Centralized error types for the POS core

ERROR CATEGORIES:
  1. Validation errors - caller's fault, detected before any write
  2. Not-found errors - referenced entity absent
  3. Store errors - transaction aborts; the whole operation rolls back

Every mutating operation either commits fully or leaves no trace: mid-
transaction failures roll back before the error reaches the caller.
*/
package pos

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when a referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned for a status outside the closed set.
	// Use errors.Is; the concrete value is *InvalidStatusError.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrSaleNotRecorded is returned when a sale insert reports zero affected
	// rows during a completion transition. It aborts the whole transaction so
	// an order can never be completed without its paired sale.
	ErrSaleNotRecorded = errors.New("sale row not recorded")

	// ErrTransactionFailed wraps store-level aborts.
	ErrTransactionFailed = errors.New("transaction failed")
)

// ValidationError reports missing or empty required input. No mutation has
// been performed when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidStatusError carries the rejected status value.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

func (e *InvalidStatusError) Unwrap() error {
	return ErrInvalidStatus
}

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsClientError reports whether err is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidStatus)
}
