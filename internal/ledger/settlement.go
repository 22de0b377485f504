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

// SettlementInput describes a payment from one guest to another.
type SettlementInput struct {
	GatheringID string
	FromUserID  string
	ToUserID    string

	// Amount is the raw user-entered value.
	Amount string

	Note string
}

// SettlementReceipt is the outcome of a recorded settlement.
type SettlementReceipt struct {
	Settlement  *models.Settlement
	Adjustments []models.Adjustment
}

// RecordSettlement records that in.FromUserID paid in.ToUserID. The payer's
// balance rises by the amount and the recipient's falls by it, so a transfer
// from SettlementPlan moves both toward zero.
//
// Settlements share the expense lock, so they never interleave with an
// expense of the same gathering.
func (l *ExpenseLedger) RecordSettlement(ctx context.Context, in SettlementInput) (*SettlementReceipt, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	to := strings.TrimSpace(in.ToUserID)
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is empty", ErrInvalidSettlement)
	}
	if to == in.FromUserID {
		return nil, fmt.Errorf("%w: %s cannot pay themselves", ErrInvalidSettlement, to)
	}

	unlock := l.locks.lock(in.GatheringID)
	defer unlock()

	if _, err := l.store.GetGuest(ctx, in.GatheringID, in.FromUserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, in.FromUserID)
		}
		return nil, persistenceError("get payer", err)
	}
	if _, err := l.store.GetGuest(ctx, in.GatheringID, to); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGuestNotFound, to)
		}
		return nil, persistenceError("get recipient", err)
	}

	adjustments := []models.Adjustment{
		{UserID: in.FromUserID, Delta: amount},
		{UserID: to, Delta: amount.Neg()},
	}
	if err := CheckBalanced(adjustments); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GatheringID: in.GatheringID,
		FromUserID:  in.FromUserID,
		ToUserID:    to,
		Amount:      amount,
		Note:        in.Note,
		CreatedAt:   l.opts.now().Unix(),
	}

	if writer, ok := l.store.(storage.SettlementWriter); ok {
		err = l.writeAtomically(ctx, "write settlement", in.GatheringID, adjustments, func(wctx context.Context) error {
			return writer.WriteSettlement(wctx, settlement, adjustments)
		})
	} else {
		err = l.applySequentially(ctx, in.GatheringID, adjustments)
	}
	if err != nil {
		slog.Error("Settlement not applied",
			"gathering_id", in.GatheringID,
			"from_user_id", in.FromUserID,
			"to_user_id", to,
			"error", err,
		)
		return nil, err
	}

	l.opts.metrics.SettlementRecorded()
	slog.Info("Settlement recorded",
		"gathering_id", in.GatheringID,
		"from_user_id", in.FromUserID,
		"to_user_id", to,
		"amount", amount.String(),
	)
	return &SettlementReceipt{Settlement: settlement, Adjustments: adjustments}, nil
}
