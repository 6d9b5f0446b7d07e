// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for conditions that need no extra context.
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrVendorNotFound     = errors.New("vendor not found")
	ErrVendorNotApproved  = errors.New("vendor account is not approved")
	ErrReapprovalRequired = errors.New("approved products require re-approval")
)

// QuotaExceededError is a business-rule block, not a failure: the vendor's
// approved-product ceiling would be crossed. It carries the numbers the
// client needs to display.
type QuotaExceededError struct {
	VendorID  uuid.UUID `json:"vendor_id"`
	Current   int       `json:"current"`
	Attempted int       `json:"attempted"`
	Max       int       `json:"max"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("vendor %s product limit reached: %d approved, %d attempted, %d max",
		e.VendorID, e.Current, e.Attempted, e.Max)
}

// CounterDriftError signals the denormalized approved counter was already
// inconsistent: a decrement would push it below zero. This is an internal
// bug, never clamped.
type CounterDriftError struct {
	VendorID uuid.UUID
	Count    int
}

func (e *CounterDriftError) Error() string {
	return fmt.Sprintf("vendor %s approved counter would drop below zero (current %d)", e.VendorID, e.Count)
}
