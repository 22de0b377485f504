package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/models"
)

// SuggestTransfers turns guest balances into payments that would bring every
// balance to zero.
//
// Algorithm:
//   - Creditors (positive balance) and debtors (negative balance) are sorted by
//     size, largest first, ties broken by user ID
//   - The largest debtor pays the largest creditor the smaller of the two amounts
//   - Whoever reaches zero is dropped and matching continues
//
// Balances must sum to zero for the plan to settle everyone; any leftover is
// left unmatched.
func SuggestTransfers(guests []*models.Guest) []models.Transfer {
	type position struct {
		userID string
		amount decimal.Decimal // always positive
	}

	var creditors, debtors []position
	for _, g := range guests {
		switch g.Expenses.Sign() {
		case 1:
			creditors = append(creditors, position{g.UserID, g.Expenses})
		case -1:
			debtors = append(debtors, position{g.UserID, g.Expenses.Neg()})
		}
	}

	bySize := func(p []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := p[i].amount.Cmp(p[j].amount); c != 0 {
				return c > 0
			}
			return p[i].userID < p[j].userID
		}
	}
	sort.Slice(creditors, bySize(creditors))
	sort.Slice(debtors, bySize(debtors))

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)

		transfers = append(transfers, models.Transfer{
			From:   debtors[i].userID,
			To:     creditors[j].userID,
			Amount: amount,
		})

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}

	return transfers
}
