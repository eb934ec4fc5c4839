package calculator

import (
	"cmp"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Balance is one user's net position within a group.
type Balance struct {
	UserID int64
	Paid   money.Cents // Total amount paid across all expenses
	Owes   money.Cents // Total amount of the user's splits
	Net    money.Cents // Positive = owed money, Negative = owes money

	// FormerMember is set for users no longer in the group who still hold a
	// non-zero position.
	FormerMember bool
}

// Ledger accumulates balances while visiting expenses. Sums are integer cents
// so the result does not depend on visiting order.
type Ledger struct {
	entries map[int64]*Balance
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int64]*Balance)}
}

func (l *Ledger) entry(userID int64) *Balance {
	b, ok := l.entries[userID]
	if !ok {
		b = &Balance{UserID: userID}
		l.entries[userID] = b
	}
	return b
}

// VisitExpense credits the payer with the full amount.
func (l *Ledger) VisitExpense(e *models.Expense) {
	l.entry(e.PaidBy).Paid += e.Amount
}

// VisitSplit debits the participant by their share. A payer who also
// participates is debited like anyone else.
func (l *Ledger) VisitSplit(_ *models.Expense, s *models.ExpenseSplit) {
	l.entry(s.UserID).Owes += s.Amount
}

// Balances returns one entry per current member, plus any former member with
// a non-zero position, ordered by net balance ascending then user id.
func (l *Ledger) Balances(members []int64) []Balance {
	current := make(map[int64]bool, len(members))
	out := make([]Balance, 0, len(members))
	for _, m := range members {
		if current[m] {
			continue
		}
		current[m] = true
		b := Balance{UserID: m}
		if e, ok := l.entries[m]; ok {
			b = *e
		}
		b.Net = b.Paid - b.Owes
		out = append(out, b)
	}
	for id, e := range l.entries {
		if current[id] {
			continue
		}
		b := *e
		b.Net = b.Paid - b.Owes
		if b.Net == 0 {
			continue
		}
		b.FormerMember = true
		out = append(out, b)
	}

	slices.SortFunc(out, func(a, b Balance) int {
		if c := cmp.Compare(a.Net, b.Net); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// ComputeBalances folds a group's expenses into net balances for members.
//
// Algorithm:
// - For each expense: payer is credited the full amount once
// - For each split: the participant is debited their owed amount
// - Net = paid - owed; members without activity report 0
func ComputeBalances(expenses []models.Expense, members []int64) []Balance {
	ledger := NewLedger()
	Traverse(expenses, ledger)
	return ledger.Balances(members)
}
