package service

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/coven/internal/ledger"
	"github.com/mmynk/coven/internal/storage"
)

// Metadata keys attached to partially failed RecordExpense and
// RecordSettlement calls.
const (
	MetaUnappliedGuests = "Unapplied-Guests"
	MetaAppliedGuests   = "Applied-Guests"
	MetaFailedGuest     = "Failed-Guest"
)

var errMissingField = errors.New("missing required field")

// toConnectError maps ledger and storage errors to Connect codes. A partial
// failure is aborted unless a write ran out of time, which stays
// deadline_exceeded; either way the guest metadata is attached.
func toConnectError(err error) *connect.Error {
	var pf *ledger.PartialFailureError
	if errors.As(err, &pf) {
		code := connect.CodeAborted
		if errors.Is(pf.Err, context.DeadlineExceeded) {
			code = connect.CodeDeadlineExceeded
		}
		cerr := connect.NewError(code, err)
		cerr.Meta().Set(MetaUnappliedGuests, strings.Join(pf.Unapplied, ","))
		cerr.Meta().Set(MetaAppliedGuests, strings.Join(pf.Applied, ","))
		cerr.Meta().Set(MetaFailedGuest, pf.FailedUserID)
		return cerr
	}

	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNoConsumersSelected),
		errors.Is(err, ledger.ErrConsumerNotGuest),
		errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrInvalidSettlement),
		errors.Is(err, errMissingField):
		return connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrPayerNotFound),
		errors.Is(err, ledger.ErrGuestNotFound),
		errors.Is(err, ledger.ErrGatheringNotFound),
		errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, ledger.ErrForbidden):
		return connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrAlreadyJoined),
		errors.Is(err, storage.ErrConflict):
		return connect.CodeAlreadyExists
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.Join(errMissingField, errors.New(name)))
	}
	return nil
}
