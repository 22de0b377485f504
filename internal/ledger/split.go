package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/models"
)

const (
	// maxAmountScale is the most fractional digits an amount may carry.
	maxAmountScale = 6

	// maxAmountDigits is the most integer digits an amount may carry.
	maxAmountDigits = 12

	// maxAmountLength caps the raw input before it is parsed.
	maxAmountLength = 64

	// shareScale is the number of fractional digits kept in a share.
	// It exceeds maxAmountScale so the split remainder is a whole number of units.
	shareScale = 12
)

// Split is the staged result of splitting one expense.
type Split struct {
	PayerID string
	Amount  decimal.Decimal

	// Share is amount / len(ConsumerIDs) truncated to shareScale digits.
	Share decimal.Decimal

	// ConsumerIDs are unique and sorted.
	ConsumerIDs []string

	// Adjustments has one entry per affected guest, payer first.
	Adjustments []models.Adjustment
}

// ParseAmount parses a user-entered amount. It must be a finite decimal
// number greater than zero with at most six fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseMoney(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return amount, nil
}

// ParseMoney parses a non-negative decimal with at most six fractional and
// twelve integer digits. Exponent notation is accepted within those bounds.
func ParseMoney(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is empty", ErrInvalidAmount)
	}
	if len(raw) > maxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, maxAmountLength)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	// Checked on coefficient and exponent so nothing is rescaled before the
	// magnitude is known to be small.
	exp := int64(amount.Exponent())
	if exp < -maxAmountLength || int64(amount.NumDigits())+exp > maxAmountDigits {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, raw)
	}
	if !amount.Equal(amount.Truncate(maxAmountScale)) {
		return decimal.Zero, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, maxAmountScale)
	}
	return amount, nil
}

// NormalizeIDs trims ids, drops blanks and duplicates, and sorts the rest.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PlanExpense computes the balance adjustments for an expense paid by payerID
// and consumed by consumerIDs.
//
// The payer is credited the full amount and every consumer is debited their
// share. When the payer is also a consumer their share is netted against the
// credit, so the payer appears once. Shares are equal up to one remainder unit
// (1e-12), handed out in consumer order, so they add up to amount exactly and
// the adjustments always sum to zero.
func PlanExpense(payerID string, amount decimal.Decimal, consumerIDs []string) (*Split, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	consumers := NormalizeIDs(consumerIDs)
	if len(consumers) == 0 {
		return nil, ErrNoConsumersSelected
	}

	share, shares := splitEvenly(amount, len(consumers))

	payerDelta := amount
	adjustments := make([]models.Adjustment, 1, len(consumers)+1)
	for i, id := range consumers {
		if id == payerID {
			payerDelta = payerDelta.Sub(shares[i])
			continue
		}
		adjustments = append(adjustments, models.Adjustment{UserID: id, Delta: shares[i].Neg()})
	}
	adjustments[0] = models.Adjustment{UserID: payerID, Delta: payerDelta}

	if err := CheckBalanced(adjustments); err != nil {
		return nil, err
	}

	return &Split{
		PayerID:     payerID,
		Amount:      amount,
		Share:       share,
		ConsumerIDs: consumers,
		Adjustments: adjustments,
	}, nil
}

// CheckBalanced verifies that a set of adjustments redistributes money
// without creating or destroying any.
func CheckBalanced(adjustments []models.Adjustment) error {
	sum := decimal.Zero
	for _, adj := range adjustments {
		sum = sum.Add(adj.Delta)
	}
	if !sum.IsZero() {
		return fmt.Errorf("%w: deltas sum to %s", ErrUnbalancedSplit, sum)
	}
	return nil
}

// splitEvenly divides amount into n shares that sum to amount exactly.
// It returns the truncated base share and the per-consumer shares.
func splitEvenly(amount decimal.Decimal, n int) (decimal.Decimal, []decimal.Decimal) {
	base, remainder := amount.QuoRem(decimal.NewFromInt(int64(n)), shareScale)
	unit := decimal.New(1, -shareScale)
	extra := remainder.Div(unit).IntPart()

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < extra {
			shares[i] = base.Add(unit)
		}
	}
	return base, shares
}
