package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrPartialFailure  = errors.New("partial failure")

	// ErrCommitUnknown means a commit was sent but its outcome could not be observed.
	ErrCommitUnknown = errors.New("commit outcome unknown")
)

// ClearOutcome reports what is known about the cart-clear step of a checkout.
type ClearOutcome string

const ClearOutcomeUnknown ClearOutcome = "unknown"

// PartialFailureError is returned when a checkout may have committed only partially
// or with an unobservable outcome. It carries enough to reconcile.
type PartialFailureError struct {
	OrderID      uuid.UUID
	ClearOutcome ClearOutcome
	Guidance     string
	Err          error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("checkout of order %s: cart clear %s: %v", e.OrderID, e.ClearOutcome, e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Err}
}
