// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// ExpenseFilter narrows ListExpenses.
type ExpenseFilter struct {
	// GroupID restricts the result to one group; 0 means every group.
	GroupID int64
	// Limit caps the number of expenses returned; 0 means no limit.
	Limit int
	// Offset skips expenses, newest first. It only applies with a Limit.
	Offset int
	// WithSplits loads the splits of every returned expense.
	WithSplits bool
}

// GroupLedger is a consistent read of everything needed to compute a
// group's balances: the group, every expense with its complete splits,
// and every user that appears in either.
type GroupLedger struct {
	Group    models.Group
	Expenses []models.Expense
	Users    map[int64]models.User
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Lookups of unknown ids return an apperr NotFound error.
type Store interface {
	// CreateUser persists a new user. The user.ID and CreatedAt fields are populated.
	// Returns a Conflict error if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// GetUsersByIDs returns the users that exist among ids, keyed by id.
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUser changes name and email. Returns a Conflict error if the email is taken.
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user and their memberships.
	// Returns a Precondition error while any expense references the user.
	DeleteUser(ctx context.Context, userID int64) error

	// CreateGroup persists a group and its members.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	// GetGroupSummary returns the group with its expense count and total.
	GetGroupSummary(ctx context.Context, groupID int64) (*models.GroupSummary, error)
	ListGroups(ctx context.Context) ([]models.GroupSummary, error)
	// ListGroupsByUser returns the groups userID currently belongs to, by name.
	ListGroupsByUser(ctx context.Context, userID int64) ([]models.Group, error)
	// UpdateGroup replaces the name and the member set.
	UpdateGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes the group. Returns a Precondition error while it has expenses.
	DeleteGroup(ctx context.Context, groupID int64) error

	// CreateExpense persists an expense and all of its splits atomically.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	// GetExpense retrieves an expense with its splits.
	GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error)
	// ListExpenses returns expenses newest first.
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	// UpdateExpense replaces an expense and all of its splits atomically.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	// DeleteExpense removes an expense and its splits.
	DeleteExpense(ctx context.Context, expenseID int64) error

	// LoadGroupLedger reads a group's ledger inside a single read transaction.
	LoadGroupLedger(ctx context.Context, groupID int64) (*GroupLedger, error)

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
