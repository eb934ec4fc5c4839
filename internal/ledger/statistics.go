package ledger

import (
	"context"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// UserStats is calculator.UserStats with the payer's name.
type UserStats struct {
	UserID   int64
	UserName string
	Count    int
	Total    money.Cents
}

// Statistics describes the expenses of one group, or of every group.
type Statistics struct {
	GroupID  int64 // 0 for every group
	Count    int
	Total    money.Cents
	Average  money.Cents
	Min      money.Cents
	Max      money.Cents
	ByUser   []UserStats
	ByPeriod []calculator.PeriodStats
}

// Statistics aggregates expenses of groupID, or of all groups when groupID
// is 0. An empty scope yields zeroed figures.
func (s *Service) Statistics(ctx context.Context, groupID int64) (*Statistics, error) {
	if groupID != 0 {
		if _, err := s.store.GetGroup(ctx, groupID); err != nil {
			return nil, err
		}
	}

	expenses, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	stats := calculator.ComputeStatistics(expenses)

	ids := make([]int64, len(stats.ByUser))
	for i, u := range stats.ByUser {
		ids[i] = u.UserID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &Statistics{
		GroupID:  groupID,
		Count:    stats.Count,
		Total:    stats.Total,
		Average:  stats.Average,
		Min:      stats.Min,
		Max:      stats.Max,
		ByUser:   make([]UserStats, len(stats.ByUser)),
		ByPeriod: stats.ByPeriod,
	}
	for i, u := range stats.ByUser {
		out.ByUser[i] = UserStats{UserID: u.UserID, UserName: users[u.UserID].Name, Count: u.Count, Total: u.Total}
	}
	return out, nil
}
