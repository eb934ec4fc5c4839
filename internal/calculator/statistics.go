package calculator

import (
	"cmp"
	"slices"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// PeriodLayout formats the calendar month an expense belongs to.
const PeriodLayout = "2006-01"

// UserStats aggregates the expenses paid by one user.
type UserStats struct {
	UserID int64
	Count  int
	Total  money.Cents
}

// PeriodStats aggregates the expenses created in one calendar month (UTC).
type PeriodStats struct {
	Period string
	Count  int
	Total  money.Cents
}

// Statistics summarizes an expense set. The zero value describes an empty set.
type Statistics struct {
	Count    int
	Total    money.Cents
	Average  money.Cents
	Min      money.Cents
	Max      money.Cents
	ByUser   []UserStats
	ByPeriod []PeriodStats
}

// StatsCollector gathers Statistics while visiting expenses.
type StatsCollector struct {
	stats    Statistics
	byUser   map[int64]*UserStats
	byPeriod map[string]*PeriodStats
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		byUser:   make(map[int64]*UserStats),
		byPeriod: make(map[string]*PeriodStats),
	}
}

// VisitExpense records one expense.
func (c *StatsCollector) VisitExpense(e *models.Expense) {
	s := &c.stats
	if s.Count == 0 || e.Amount < s.Min {
		s.Min = e.Amount
	}
	if s.Count == 0 || e.Amount > s.Max {
		s.Max = e.Amount
	}
	s.Count++
	s.Total += e.Amount

	u, ok := c.byUser[e.PaidBy]
	if !ok {
		u = &UserStats{UserID: e.PaidBy}
		c.byUser[e.PaidBy] = u
	}
	u.Count++
	u.Total += e.Amount

	period := time.Unix(e.CreatedAt, 0).UTC().Format(PeriodLayout)
	p, ok := c.byPeriod[period]
	if !ok {
		p = &PeriodStats{Period: period}
		c.byPeriod[period] = p
	}
	p.Count++
	p.Total += e.Amount
}

// VisitSplit is a no-op; statistics only look at expenses.
func (c *StatsCollector) VisitSplit(*models.Expense, *models.ExpenseSplit) {}

// Statistics returns the collected figures. ByUser is ordered by user id and
// ByPeriod chronologically.
func (c *StatsCollector) Statistics() Statistics {
	s := c.stats
	if s.Count > 0 {
		s.Average = money.Cents(money.DivRound(int64(s.Total), int64(s.Count)))
	}

	s.ByUser = make([]UserStats, 0, len(c.byUser))
	for _, u := range c.byUser {
		s.ByUser = append(s.ByUser, *u)
	}
	slices.SortFunc(s.ByUser, func(a, b UserStats) int { return cmp.Compare(a.UserID, b.UserID) })

	s.ByPeriod = make([]PeriodStats, 0, len(c.byPeriod))
	for _, p := range c.byPeriod {
		s.ByPeriod = append(s.ByPeriod, *p)
	}
	slices.SortFunc(s.ByPeriod, func(a, b PeriodStats) int { return cmp.Compare(a.Period, b.Period) })
	return s
}

// ComputeStatistics derives Statistics from expenses in a single pass.
func ComputeStatistics(expenses []models.Expense) Statistics {
	c := NewStatsCollector()
	Traverse(expenses, c)
	return c.Statistics()
}
