package models

import "github.com/mmynk/splitledger/internal/money"

// SplitType is the policy used to divide an expense among participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly among participants.
	SplitEqual SplitType = "equal"
	// SplitPercentage divides the amount by per-participant percentages.
	SplitPercentage SplitType = "percentage"
)

// Valid reports whether t is a known split policy.
func (t SplitType) Valid() bool {
	return t == SplitEqual || t == SplitPercentage
}

// Expense is an amount paid by one group member and shared by participants.
// It is created together with its splits and replaced or removed as a unit.
type Expense struct {
	// ID is the unique numeric identifier assigned by the store.
	ID int64

	// GroupID is the group whose ledger this expense belongs to.
	GroupID int64

	// Description is a short human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total paid, always positive.
	Amount money.Cents

	// PaidBy is the user who paid the full amount.
	PaidBy int64

	// SplitType is the policy the splits were computed with.
	SplitType SplitType

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits are the computed owed shares; their amounts sum to Amount.
	Splits []ExpenseSplit
}

// ExpenseSplit is one participant's owed share of an expense.
// Splits are keyed by (ExpenseID, UserID).
type ExpenseSplit struct {
	ExpenseID int64
	UserID    int64
	Amount    money.Cents

	// Percentage is set only for percentage splits.
	Percentage *money.Percent
}
