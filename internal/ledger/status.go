package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

// StatusTracker lets a guest edit their own arriving status and remarks.
type StatusTracker struct {
	store storage.GuestStore
	opts  options
}

// NewStatusTracker creates a StatusTracker over store.
func NewStatusTracker(store storage.GuestStore, opts ...Option) *StatusTracker {
	return &StatusTracker{store: store, opts: buildOptions(opts)}
}

// SetArrivingStatus stores status for the guest (gatheringID, userID).
// Only the guest may change it, so callerID must equal userID. On error the
// caller should restore whatever it displayed before.
func (t *StatusTracker) SetArrivingStatus(ctx context.Context, callerID, gatheringID, userID, status string) (models.ArrivingStatus, error) {
	parsed, err := models.ParseArrivingStatus(status)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if err := authorize(callerID, userID); err != nil {
		return "", err
	}

	wctx, cancel := t.opts.writeContext(ctx)
	defer cancel()

	if err := t.store.UpdateGuestStatus(wctx, gatheringID, userID, parsed); err != nil {
		return "", guestWriteError("update arriving status", err)
	}

	slog.Info("Arriving status updated", "gathering_id", gatheringID, "user_id", userID, "status", string(parsed))
	return parsed, nil
}

// SetRemarks stores remarks for the guest. Nil or blank text clears them.
func (t *StatusTracker) SetRemarks(ctx context.Context, callerID, gatheringID, userID string, remarks *string) (*string, error) {
	if err := authorize(callerID, userID); err != nil {
		return nil, err
	}
	remarks = cleanRemarks(remarks)

	wctx, cancel := t.opts.writeContext(ctx)
	defer cancel()

	if err := t.store.UpdateGuestRemarks(wctx, gatheringID, userID, remarks); err != nil {
		return nil, guestWriteError("update remarks", err)
	}

	slog.Info("Remarks updated", "gathering_id", gatheringID, "user_id", userID, "cleared", remarks == nil)
	return remarks, nil
}

func authorize(callerID, userID string) error {
	if callerID == "" || callerID != userID {
		return ErrForbidden
	}
	return nil
}

func cleanRemarks(remarks *string) *string {
	if remarks == nil {
		return nil
	}
	text := strings.TrimSpace(*remarks)
	if text == "" {
		return nil
	}
	return &text
}

func guestWriteError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrGuestNotFound, err)
	}
	return persistenceError(op, err)
}
