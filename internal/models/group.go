package models

import "github.com/mmynk/splitledger/internal/money"

// Group is a set of users sharing one ledger.
// Expenses reference the group, not a frozen snapshot of its members.
type Group struct {
	// ID is the unique numeric identifier assigned by the store.
	ID int64

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members holds the ids of the current members in ascending order.
	Members []int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID is a current member of the group.
func (g *Group) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// GroupSummary is a group with aggregate figures for listings.
type GroupSummary struct {
	Group

	// ExpenseCount is the number of expenses recorded in the group.
	ExpenseCount int

	// TotalExpenses is the sum of all expense amounts in the group.
	TotalExpenses money.Cents
}
