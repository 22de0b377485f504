// Package ledger implements the gathering expense ledger: splitting shared
// expenses across guests, guest status edits, and the guest roster.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

// ExpenseInput describes one expense to record.
type ExpenseInput struct {
	GatheringID string
	PayerID     string

	// Amount is the raw user-entered value, e.g. "30" or "12.50".
	Amount string

	// ConsumerIDs are the guests sharing the cost; the payer may be included.
	ConsumerIDs []string

	Note string
}

// Receipt is the outcome of a recorded expense.
type Receipt struct {
	Expense     *models.Expense
	Adjustments []models.Adjustment
}

// ExpenseLedger records shared expenses against guest balances.
type ExpenseLedger struct {
	store storage.GuestStore
	locks *gatheringLocks
	opts  options
}

// NewExpenseLedger creates a ledger over store. When store also implements
// storage.ExpenseWriter every expense commits atomically; otherwise deltas are
// applied one by one and compensated on failure.
func NewExpenseLedger(store storage.GuestStore, opts ...Option) *ExpenseLedger {
	return &ExpenseLedger{
		store: store,
		locks: newGatheringLocks(),
		opts:  buildOptions(opts),
	}
}

// RecordExpense splits in.Amount across in.ConsumerIDs and credits the payer.
//
// Validation errors (ErrInvalidAmount, ErrNoConsumersSelected) are returned
// before the store is touched. Calls for the same gathering run one at a time.
func (l *ExpenseLedger) RecordExpense(ctx context.Context, in ExpenseInput) (*Receipt, error) {
	receipt, err := l.recordExpense(ctx, in)
	if err != nil {
		l.opts.metrics.ExpenseFailed(failureReason(err))
		return nil, err
	}
	l.opts.metrics.ExpenseRecorded()
	return receipt, nil
}

func (l *ExpenseLedger) recordExpense(ctx context.Context, in ExpenseInput) (*Receipt, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	consumers := NormalizeIDs(in.ConsumerIDs)
	if len(consumers) == 0 {
		return nil, ErrNoConsumersSelected
	}

	unlock := l.locks.lock(in.GatheringID)
	defer unlock()

	if _, err := l.store.GetGuest(ctx, in.GatheringID, in.PayerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, in.PayerID)
		}
		return nil, persistenceError("get payer", err)
	}

	guests, err := l.store.ListGuests(ctx, in.GatheringID)
	if err != nil {
		return nil, persistenceError("list guests", err)
	}
	isGuest := make(map[string]bool, len(guests))
	for _, g := range guests {
		isGuest[g.UserID] = true
	}
	for _, id := range consumers {
		if !isGuest[id] {
			return nil, fmt.Errorf("%w: %s", ErrConsumerNotGuest, id)
		}
	}

	split, err := PlanExpense(in.PayerID, amount, consumers)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GatheringID: in.GatheringID,
		PayerID:     in.PayerID,
		Amount:      split.Amount,
		Share:       split.Share,
		ConsumerIDs: split.ConsumerIDs,
		Note:        in.Note,
		CreatedAt:   l.opts.now().Unix(),
	}

	if err := l.apply(ctx, expense, split.Adjustments); err != nil {
		slog.Error("Expense not applied",
			"gathering_id", in.GatheringID,
			"payer_id", in.PayerID,
			"amount", amount.String(),
			"error", err,
		)
		return nil, err
	}

	slog.Info("Expense recorded",
		"gathering_id", in.GatheringID,
		"payer_id", in.PayerID,
		"amount", amount.String(),
		"consumers", len(consumers),
	)
	return &Receipt{Expense: expense, Adjustments: split.Adjustments}, nil
}

func (l *ExpenseLedger) apply(ctx context.Context, expense *models.Expense, adjustments []models.Adjustment) error {
	writer, ok := l.store.(storage.ExpenseWriter)
	if !ok {
		return l.applySequentially(ctx, expense.GatheringID, adjustments)
	}
	return l.writeAtomically(ctx, "write expense", expense.GatheringID, adjustments, func(wctx context.Context) error {
		return writer.WriteExpense(wctx, expense, adjustments)
	})
}

// writeAtomically runs a single-transaction write under the write timeout. A
// failed balance row is reported as a rolled-back PartialFailureError.
func (l *ExpenseLedger) writeAtomically(ctx context.Context, op, gatheringID string, adjustments []models.Adjustment, write func(context.Context) error) error {
	wctx, cancel := l.opts.writeContext(ctx)
	defer cancel()

	err := write(wctx)
	if err == nil {
		return nil
	}

	var balanceErr *storage.BalanceUpdateError
	if errors.As(err, &balanceErr) {
		return &PartialFailureError{
			GatheringID:  gatheringID,
			Unapplied:    userIDs(adjustments),
			FailedUserID: balanceErr.UserID,
			RolledBack:   true,
			Err:          persistenceError(op, err),
		}
	}
	return persistenceError(op, err)
}

// applySequentially increments each balance in turn. When one fails, the
// deltas already written are reversed in opposite order; compensation runs
// even if ctx has been cancelled.
func (l *ExpenseLedger) applySequentially(ctx context.Context, gatheringID string, adjustments []models.Adjustment) error {
	for i, adj := range adjustments {
		err := l.increment(ctx, gatheringID, adj)
		if err == nil {
			continue
		}

		stillApplied := l.compensate(context.WithoutCancel(ctx), gatheringID, adjustments[:i])
		applied := make(map[string]bool, len(stillApplied))
		for _, id := range stillApplied {
			applied[id] = true
		}
		var unapplied []string
		for _, a := range adjustments {
			if !applied[a.UserID] {
				unapplied = append(unapplied, a.UserID)
			}
		}

		return &PartialFailureError{
			GatheringID:  gatheringID,
			Applied:      stillApplied,
			Unapplied:    unapplied,
			FailedUserID: adj.UserID,
			RolledBack:   len(stillApplied) == 0,
			Err:          persistenceError("increment balance", err),
		}
	}
	return nil
}

// compensate reverses done and returns the guests whose reversal failed, in
// adjustment order.
func (l *ExpenseLedger) compensate(ctx context.Context, gatheringID string, done []models.Adjustment) []string {
	var failed []string
	for i := len(done) - 1; i >= 0; i-- {
		reverse := models.Adjustment{UserID: done[i].UserID, Delta: done[i].Delta.Neg()}
		if err := l.increment(ctx, gatheringID, reverse); err != nil {
			slog.Error("Failed to compensate balance",
				"gathering_id", gatheringID,
				"user_id", reverse.UserID,
				"delta", done[i].Delta.String(),
				"error", err,
			)
			failed = append([]string{reverse.UserID}, failed...)
		}
	}
	return failed
}

func (l *ExpenseLedger) increment(ctx context.Context, gatheringID string, adj models.Adjustment) error {
	wctx, cancel := l.opts.writeContext(ctx)
	defer cancel()
	return l.store.IncrementGuestBalance(wctx, gatheringID, adj.UserID, adj.Delta)
}

func userIDs(adjustments []models.Adjustment) []string {
	ids := make([]string, len(adjustments))
	for i, adj := range adjustments {
		ids[i] = adj.UserID
	}
	return ids
}
