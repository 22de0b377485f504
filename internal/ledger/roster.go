package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

// JoinInput describes a caller joining a gathering.
type JoinInput struct {
	CallerID    string
	DisplayName string
	GatheringID string

	// Status defaults to "On time" when empty.
	Status string

	// Remarks is optional; blank is stored as no remarks.
	Remarks *string
}

// Roster manages who attends a gathering and reads the guest list.
type Roster struct {
	store storage.RosterStore
	opts  options
}

// NewRoster creates a Roster over store.
func NewRoster(store storage.RosterStore, opts ...Option) *Roster {
	return &Roster{store: store, opts: buildOptions(opts)}
}

// Join adds the caller as a guest with a zero balance.
func (r *Roster) Join(ctx context.Context, in JoinInput) (*models.Guest, error) {
	status := models.DefaultArrivingStatus
	if in.Status != "" {
		parsed, err := models.ParseArrivingStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
		}
		status = parsed
	}
	if in.CallerID == "" {
		return nil, ErrForbidden
	}

	if err := r.requireGathering(ctx, in.GatheringID); err != nil {
		return nil, err
	}

	wctx, cancel := r.opts.writeContext(ctx)
	defer cancel()

	if in.DisplayName != "" {
		if err := r.store.UpsertUser(wctx, models.NewUser(in.CallerID, in.DisplayName)); err != nil {
			return nil, persistenceError("upsert user", err)
		}
	}

	guest := &models.Guest{
		GatheringID:    in.GatheringID,
		UserID:         in.CallerID,
		Remarks:        cleanRemarks(in.Remarks),
		ArrivingStatus: status,
		JoinedAt:       r.opts.now().Unix(),
	}
	if err := r.store.AddGuest(wctx, guest); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyJoined
		}
		return nil, persistenceError("add guest", err)
	}

	slog.Info("Guest joined", "gathering_id", in.GatheringID, "user_id", in.CallerID, "status", string(status))

	joined, err := r.store.GetGuest(ctx, in.GatheringID, in.CallerID)
	if err != nil {
		return nil, persistenceError("get guest", err)
	}
	return joined, nil
}

// Leave removes the caller from a gathering. Any outstanding balance is
// dropped with the row.
func (r *Roster) Leave(ctx context.Context, callerID, gatheringID string) error {
	if callerID == "" {
		return ErrForbidden
	}

	guest, err := r.store.GetGuest(ctx, gatheringID, callerID)
	if err != nil {
		return guestWriteError("get guest", err)
	}
	if !guest.Expenses.IsZero() {
		slog.Warn("Guest leaving with open balance",
			"gathering_id", gatheringID,
			"user_id", callerID,
			"balance", guest.Expenses.String(),
		)
	}

	wctx, cancel := r.opts.writeContext(ctx)
	defer cancel()

	if err := r.store.RemoveGuest(wctx, gatheringID, callerID); err != nil {
		return guestWriteError("remove guest", err)
	}

	slog.Info("Guest left", "gathering_id", gatheringID, "user_id", callerID)
	return nil
}

// ListGuests returns the gathering's guests as currently persisted.
func (r *Roster) ListGuests(ctx context.Context, gatheringID string) ([]*models.Guest, error) {
	if err := r.requireGathering(ctx, gatheringID); err != nil {
		return nil, err
	}
	guests, err := r.store.ListGuests(ctx, gatheringID)
	if err != nil {
		return nil, persistenceError("list guests", err)
	}
	return guests, nil
}

// SettlementPlan suggests the payments that would zero every balance.
func (r *Roster) SettlementPlan(ctx context.Context, gatheringID string) ([]models.Transfer, error) {
	guests, err := r.ListGuests(ctx, gatheringID)
	if err != nil {
		return nil, err
	}
	return SuggestTransfers(guests), nil
}

func (r *Roster) requireGathering(ctx context.Context, gatheringID string) error {
	if _, err := r.store.GetGathering(ctx, gatheringID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrGatheringNotFound, gatheringID)
		}
		return persistenceError("get gathering", err)
	}
	return nil
}
