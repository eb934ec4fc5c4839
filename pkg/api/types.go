package api

import "github.com/mmynk/splitledger/internal/money"

// User is a person who takes part in group expenses.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

// Group is a set of users sharing one ledger.
type Group struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Members       []int64     `json:"members"`
	MemberCount   int         `json:"member_count"`
	ExpenseCount  int         `json:"expense_count"`
	TotalExpenses money.Cents `json:"total_expenses"`
	CreatedAt     int64       `json:"created_at"`
}

// Expense is an amount paid by one member and shared by participants.
type Expense struct {
	ID          int64          `json:"id"`
	GroupID     int64          `json:"group_id"`
	Description string         `json:"description"`
	Amount      money.Cents    `json:"amount"`
	PaidBy      int64          `json:"paid_by"`
	SplitType   string         `json:"split_type"`
	CreatedAt   int64          `json:"created_at"`
	Splits      []ExpenseSplit `json:"splits"`
}

// ExpenseSplit is one participant's owed share.
type ExpenseSplit struct {
	UserID     int64          `json:"user_id"`
	Amount     money.Cents    `json:"amount"`
	Percentage *money.Percent `json:"percentage,omitempty"`
}

// SplitInput names a participant and, for percentage splits, their share.
type SplitInput struct {
	UserID     int64          `json:"user_id" validate:"gt=0"`
	Percentage *money.Percent `json:"percentage,omitempty"`
}

// MemberBalance is a user's net position within a group.
// Positive means the user is owed money.
type MemberBalance struct {
	UserID       int64       `json:"user_id"`
	UserName     string      `json:"user_name"`
	Balance      money.Cents `json:"balance"`
	PaidTotal    money.Cents `json:"paid_total"`
	OwesTotal    money.Cents `json:"owes_total"`
	FormerMember bool        `json:"former_member,omitempty"`
}

// UserGroupBalance is a user's net position in one of their groups.
type UserGroupBalance struct {
	GroupID   int64       `json:"group_id"`
	GroupName string      `json:"group_name"`
	Balance   money.Cents `json:"balance"`
	PaidTotal money.Cents `json:"paid_total"`
	OwesTotal money.Cents `json:"owes_total"`
}

// Settlement is a suggested payment from a debtor to a creditor.
type Settlement struct {
	FromUserID   int64       `json:"from_user_id"`
	FromUserName string      `json:"from_user_name"`
	ToUserID     int64       `json:"to_user_id"`
	ToUserName   string      `json:"to_user_name"`
	Amount       money.Cents `json:"amount"`
}

// UserStatistics aggregates the expenses paid by one user.
type UserStatistics struct {
	UserID   int64       `json:"user_id"`
	UserName string      `json:"user_name"`
	Count    int         `json:"count"`
	Total    money.Cents `json:"total"`
}

// PeriodStatistics aggregates the expenses of one calendar month (YYYY-MM, UTC).
type PeriodStatistics struct {
	Period string      `json:"period"`
	Count  int         `json:"count"`
	Total  money.Cents `json:"total"`
}
