package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// defaultExpensePageSize applies when ListGroupExpenses has no limit.
const defaultExpensePageSize = 50

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	store     storage.Store
	ledger    *ledger.Service
	publisher events.Publisher
}

// NewExpenseService creates a new ExpenseService. A nil publisher disables events.
func NewExpenseService(store storage.Store, ledger *ledger.Service, publisher events.Publisher) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ExpenseService{store: store, ledger: ledger, publisher: publisher}
}

// expenseInput is the part of a create or update request that determines
// the splits.
type expenseInput struct {
	description string
	amount      money.Cents
	paidBy      int64
	splitType   models.SplitType
	splits      []*api.SplitInput
}

// CreateExpense records an expense and its computed splits atomically.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.InfoContext(ctx, "CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
		"split_type", req.Msg.SplitType,
		"splits_count", len(req.Msg.Splits),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "CreateExpense", err)
	}

	expense, err := buildExpense(group, expenseInput{
		description: req.Msg.Description,
		amount:      req.Msg.Amount,
		paidBy:      req.Msg.PaidBy,
		splitType:   models.SplitType(req.Msg.SplitType),
		splits:      req.Msg.Splits,
	})
	if err != nil {
		return nil, toConnectError(ctx, "CreateExpense", err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, toConnectError(ctx, "CreateExpense", err)
	}
	s.afterWrite(ctx, events.ExpenseCreated, expense.ID, expense.GroupID)

	slog.InfoContext(ctx, "Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpense retrieves an expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.InfoContext(ctx, "GetExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(ctx, "GetExpense", err)
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListGroupExpenses returns a page of a group's expenses, newest first.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	slog.InfoContext(ctx, "ListGroupExpenses request received",
		"group_id", req.Msg.GroupID,
		"limit", req.Msg.Limit,
		"offset", req.Msg.Offset,
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "ListGroupExpenses", err)
	}

	limit := req.Msg.Limit
	if limit == 0 {
		limit = defaultExpensePageSize
	}
	expenses, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{
		GroupID:    req.Msg.GroupID,
		Limit:      limit,
		Offset:     req.Msg.Offset,
		WithSplits: true,
	})
	if err != nil {
		return nil, toConnectError(ctx, "ListGroupExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}

	slog.InfoContext(ctx, "ListGroupExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: out}), nil
}

// UpdateExpense replaces an expense and recomputes its splits as a unit.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.InfoContext(ctx, "UpdateExpense request received",
		"expense_id", req.Msg.ExpenseID,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
		"split_type", req.Msg.SplitType,
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	existing, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}
	group, err := s.store.GetGroup(ctx, existing.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}

	expense, err := buildExpense(group, expenseInput{
		description: req.Msg.Description,
		amount:      req.Msg.Amount,
		paidBy:      req.Msg.PaidBy,
		splitType:   models.SplitType(req.Msg.SplitType),
		splits:      req.Msg.Splits,
	})
	if err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}
	expense.ID = existing.ID

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, toConnectError(ctx, "UpdateExpense", err)
	}
	s.afterWrite(ctx, events.ExpenseUpdated, expense.ID, expense.GroupID)

	slog.InfoContext(ctx, "Expense updated", "expense_id", expense.ID)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense removes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.InfoContext(ctx, "DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	existing, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteExpense", err)
	}
	if err := s.store.DeleteExpense(ctx, existing.ID); err != nil {
		return nil, toConnectError(ctx, "DeleteExpense", err)
	}
	s.afterWrite(ctx, events.ExpenseDeleted, existing.ID, existing.GroupID)

	slog.InfoContext(ctx, "Expense deleted", "expense_id", existing.ID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetStatistics aggregates the expenses of one group, or of every group.
func (s *ExpenseService) GetStatistics(ctx context.Context, req *connect.Request[api.GetStatisticsRequest]) (*connect.Response[api.GetStatisticsResponse], error) {
	slog.InfoContext(ctx, "GetStatistics request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	stats, err := s.ledger.Statistics(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetStatistics", err)
	}

	byUser := make([]*api.UserStatistics, len(stats.ByUser))
	for i, u := range stats.ByUser {
		byUser[i] = &api.UserStatistics{UserID: u.UserID, UserName: u.UserName, Count: u.Count, Total: u.Total}
	}
	byPeriod := make([]*api.PeriodStatistics, len(stats.ByPeriod))
	for i, p := range stats.ByPeriod {
		byPeriod[i] = &api.PeriodStatistics{Period: p.Period, Count: p.Count, Total: p.Total}
	}

	return connect.NewResponse(&api.GetStatisticsResponse{
		GroupID:       stats.GroupID,
		Count:         stats.Count,
		TotalAmount:   stats.Total,
		AverageAmount: stats.Average,
		MinAmount:     stats.Min,
		MaxAmount:     stats.Max,
		ByUser:        byUser,
		ByPeriod:      byPeriod,
	}), nil
}

// afterWrite runs once an expense write has committed.
func (s *ExpenseService) afterWrite(ctx context.Context, t events.Type, expenseID, groupID int64) {
	s.ledger.Invalidate(ctx, groupID)
	events.Emit(ctx, s.publisher, events.NewEvent(t, expenseID, groupID))
}

// buildExpense checks the payer and participants against the group's
// current members and computes the splits.
func buildExpense(group *models.Group, in expenseInput) (*models.Expense, error) {
	description := strings.TrimSpace(in.description)
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if !group.HasMember(in.paidBy) {
		return nil, apperr.Validation("payer %d is not a member of group %d", in.paidBy, group.ID)
	}

	var (
		participants []int64
		percentages  map[int64]money.Percent
	)
	switch in.splitType {
	case models.SplitEqual:
		if len(in.splits) == 0 {
			participants = group.Members
		}
		for _, sp := range in.splits {
			if sp.Percentage != nil {
				return nil, apperr.Validation("percentage is only allowed for percentage splits")
			}
			participants = append(participants, sp.UserID)
		}
	case models.SplitPercentage:
		if len(in.splits) == 0 {
			return nil, apperr.Validation("percentage splits need a percentage per participant")
		}
		percentages = make(map[int64]money.Percent, len(in.splits))
		for _, sp := range in.splits {
			if sp.Percentage == nil {
				return nil, apperr.Validation("missing percentage for user %d", sp.UserID)
			}
			if _, dup := percentages[sp.UserID]; dup {
				return nil, apperr.Validation("duplicate participant %d", sp.UserID)
			}
			percentages[sp.UserID] = *sp.Percentage
			participants = append(participants, sp.UserID)
		}
	default:
		return nil, apperr.Validation("unknown split type %q", in.splitType)
	}

	for _, id := range participants {
		if !group.HasMember(id) {
			return nil, apperr.Validation("participant %d is not a member of group %d", id, group.ID)
		}
	}

	splits, err := calculator.ComputeSplits(in.amount, in.splitType, participants, percentages)
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		GroupID:     group.ID,
		Description: description,
		Amount:      in.amount,
		PaidBy:      in.paidBy,
		SplitType:   in.splitType,
		Splits:      splits,
	}, nil
}
