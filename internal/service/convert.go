package service

import (
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Members:     g.Members,
		MemberCount: len(g.Members),
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIGroupSummary(s *models.GroupSummary) *api.Group {
	out := toAPIGroup(&s.Group)
	out.ExpenseCount = s.ExpenseCount
	out.TotalExpenses = s.TotalExpenses
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.ExpenseSplit, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.ExpenseSplit{UserID: s.UserID, Amount: s.Amount, Percentage: s.Percentage}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		SplitType:   string(e.SplitType),
		CreatedAt:   e.CreatedAt,
		Splits:      splits,
	}
}

func toAPIUserGroupBalances(groups []ledger.UserGroupBalance) []*api.UserGroupBalance {
	out := make([]*api.UserGroupBalance, len(groups))
	for i, g := range groups {
		out[i] = &api.UserGroupBalance{
			GroupID:   g.GroupID,
			GroupName: g.GroupName,
			Balance:   g.Net,
			PaidTotal: g.Paid,
			OwesTotal: g.Owes,
		}
	}
	return out
}
