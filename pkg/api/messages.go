package api

import "github.com/mmynk/splitledger/internal/money"

// UserService

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type CreateUserResponse struct {
	User *User `json:"user"`
}

type GetUserRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

type GetUserResponse struct {
	User *User `json:"user"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type UpdateUserRequest struct {
	UserID int64  `json:"user_id" validate:"gt=0"`
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email"`
}

type UpdateUserResponse struct {
	User *User `json:"user"`
}

type DeleteUserRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

type DeleteUserResponse struct{}

type GetUserBalancesRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

type GetUserBalancesResponse struct {
	UserID   int64               `json:"user_id"`
	UserName string              `json:"user_name"`
	Balances []*UserGroupBalance `json:"balances"`
}

type GetUserSummaryRequest struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

type GetUserSummaryResponse struct {
	User             *User               `json:"user"`
	GroupsCount      int                 `json:"groups_count"`
	Balances         []*UserGroupBalance `json:"balances"`
	TotalBalance     money.Cents         `json:"total_balance"`
	GroupsWithDebt   int                 `json:"groups_with_debt"`
	GroupsWithCredit int                 `json:"groups_with_credit"`
	LargestDebt      money.Cents         `json:"largest_debt"`
	LargestCredit    money.Cents         `json:"largest_credit"`
}

// GroupService

type CreateGroupRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Members []int64 `json:"members" validate:"min=2,dive,gt=0"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// UpdateGroupRequest changes the name and/or the member set. Empty fields
// are left unchanged.
type UpdateGroupRequest struct {
	GroupID int64   `json:"group_id" validate:"gt=0"`
	Name    string  `json:"name,omitempty" validate:"max=100"`
	Members []int64 `json:"members,omitempty" validate:"omitempty,min=2,dive,gt=0"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

type DeleteGroupResponse struct{}

type GetGroupBalancesRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

type GetGroupBalancesResponse struct {
	GroupID   int64            `json:"group_id"`
	GroupName string           `json:"group_name"`
	Balances  []*MemberBalance `json:"balances"`
}

type GetSettlementsRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

type GetSettlementsResponse struct {
	GroupID     int64         `json:"group_id"`
	Settlements []*Settlement `json:"settlements"`
	// Settled is true when no payments are needed.
	Settled bool `json:"settled"`
}

// ExpenseService

// CreateExpenseRequest records an expense. For equal splits, Splits may be
// omitted to share among all current group members.
type CreateExpenseRequest struct {
	GroupID     int64         `json:"group_id" validate:"gt=0"`
	Description string        `json:"description" validate:"required,max=200"`
	Amount      money.Cents   `json:"amount" validate:"gt=0,lte=1000000000000"`
	PaidBy      int64         `json:"paid_by" validate:"gt=0"`
	SplitType   string        `json:"split_type" validate:"required,oneof=equal percentage"`
	Splits      []*SplitInput `json:"splits,omitempty" validate:"dive,required"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID int64 `json:"expense_id" validate:"gt=0"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListGroupExpensesRequest struct {
	GroupID int64 `json:"group_id" validate:"gt=0"`
	Limit   int   `json:"limit,omitempty" validate:"gte=0,lte=200"`
	Offset  int   `json:"offset,omitempty" validate:"gte=0"`
}

type ListGroupExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// UpdateExpenseRequest replaces an expense and its splits as a unit.
type UpdateExpenseRequest struct {
	ExpenseID   int64         `json:"expense_id" validate:"gt=0"`
	Description string        `json:"description" validate:"required,max=200"`
	Amount      money.Cents   `json:"amount" validate:"gt=0,lte=1000000000000"`
	PaidBy      int64         `json:"paid_by" validate:"gt=0"`
	SplitType   string        `json:"split_type" validate:"required,oneof=equal percentage"`
	Splits      []*SplitInput `json:"splits,omitempty" validate:"dive,required"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID int64 `json:"expense_id" validate:"gt=0"`
}

type DeleteExpenseResponse struct{}

// GetStatisticsRequest scopes statistics to a group, or to every group when
// GroupID is 0.
type GetStatisticsRequest struct {
	GroupID int64 `json:"group_id,omitempty" validate:"gte=0"`
}

type GetStatisticsResponse struct {
	GroupID       int64               `json:"group_id,omitempty"`
	Count         int                 `json:"count"`
	TotalAmount   money.Cents         `json:"total_amount"`
	AverageAmount money.Cents         `json:"average_amount"`
	MinAmount     money.Cents         `json:"min_amount"`
	MaxAmount     money.Cents         `json:"max_amount"`
	ByUser        []*UserStatistics   `json:"by_user"`
	ByPeriod      []*PeriodStatistics `json:"by_period"`
}
