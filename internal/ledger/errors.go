package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors are returned before any store call that writes.
var (
	ErrInvalidAmount       = errors.New("amount must be a number greater than zero")
	ErrNoConsumersSelected = errors.New("at least one guest must share the expense")
	ErrPayerNotFound       = errors.New("payer is not a guest of this gathering")
	ErrConsumerNotGuest    = errors.New("consumer is not a guest of this gathering")
	ErrInvalidStatus       = errors.New(`arriving status must be one of "Soon", "On time", "Late"`)
	ErrUnbalancedSplit     = errors.New("split adjustments do not sum to zero")
	ErrForbidden           = errors.New("guests may only change their own entry")
	ErrInvalidSettlement   = errors.New("settlement must name another guest")
)

var (
	ErrGuestNotFound     = errors.New("guest not found")
	ErrGatheringNotFound = errors.New("gathering not found")
	ErrAlreadyJoined     = errors.New("already joined this gathering")

	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence error")

	// ErrPartialFailure is matched by every *PartialFailureError.
	ErrPartialFailure = errors.New("expense was not fully applied")
)

// PersistenceError wraps a store failure, including write timeouts.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Timeout reports whether the store call ran out of time.
func (e *PersistenceError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// PartialFailureError reports which guests of an expense kept or lost their
// adjustment after a failed write.
type PartialFailureError struct {
	GatheringID string

	// Applied lists guests whose delta is still persisted. Non-empty only when
	// compensation itself failed.
	Applied []string

	// Unapplied lists guests whose balance does not reflect the expense.
	Unapplied []string

	// FailedUserID is the guest whose update failed first.
	FailedUserID string

	// RolledBack is true when no delta of the expense remains applied.
	RolledBack bool

	Err error
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expense in gathering %s failed at guest %s", e.GatheringID, e.FailedUserID)
	if e.RolledBack {
		b.WriteString(", all adjustments rolled back")
	} else {
		fmt.Fprintf(&b, ", still applied: [%s]", strings.Join(e.Applied, ", "))
	}
	fmt.Fprintf(&b, ", unapplied: [%s]: %v", strings.Join(e.Unapplied, ", "), e.Err)
	return b.String()
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

// failureReason labels an error for the expense failure metric.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrNoConsumersSelected):
		return "no_consumers"
	case errors.Is(err, ErrPayerNotFound):
		return "payer_not_found"
	case errors.Is(err, ErrConsumerNotGuest):
		return "consumer_not_guest"
	case errors.Is(err, ErrUnbalancedSplit):
		return "unbalanced"
	case errors.Is(err, ErrPartialFailure):
		return "partial_failure"
	default:
		return "persistence"
	}
}
