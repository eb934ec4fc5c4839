package calculator

import (
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func TestComputeStatistics(t *testing.T) {
	jan := time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC).Unix()
	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC).Unix()

	expenses := []models.Expense{
		{ID: 1, Amount: money.MustParse("10.00"), PaidBy: bob, CreatedAt: feb},
		{ID: 2, Amount: money.MustParse("0.05"), PaidBy: alice, CreatedAt: jan},
		{ID: 3, Amount: money.MustParse("20.00"), PaidBy: alice, CreatedAt: feb},
	}
	stats := ComputeStatistics(expenses)

	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	if stats.Total.String() != "30.05" {
		t.Errorf("Total = %s, want 30.05", stats.Total)
	}
	// 30.05 / 3 = 10.01666...
	if stats.Average.String() != "10.02" {
		t.Errorf("Average = %s, want 10.02", stats.Average)
	}
	if stats.Min.String() != "0.05" || stats.Max.String() != "20.00" {
		t.Errorf("Min/Max = %s/%s, want 0.05/20.00", stats.Min, stats.Max)
	}

	wantUsers := []UserStats{
		{UserID: alice, Count: 2, Total: 2005},
		{UserID: bob, Count: 1, Total: 1000},
	}
	if len(stats.ByUser) != len(wantUsers) {
		t.Fatalf("ByUser = %+v, want %+v", stats.ByUser, wantUsers)
	}
	for i, w := range wantUsers {
		if stats.ByUser[i] != w {
			t.Errorf("ByUser[%d] = %+v, want %+v", i, stats.ByUser[i], w)
		}
	}

	wantPeriods := []PeriodStats{
		{Period: "2025-01", Count: 1, Total: 5},
		{Period: "2025-02", Count: 2, Total: 3000},
	}
	if len(stats.ByPeriod) != len(wantPeriods) {
		t.Fatalf("ByPeriod = %+v, want %+v", stats.ByPeriod, wantPeriods)
	}
	for i, w := range wantPeriods {
		if stats.ByPeriod[i] != w {
			t.Errorf("ByPeriod[%d] = %+v, want %+v", i, stats.ByPeriod[i], w)
		}
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	if stats.Count != 0 || stats.Total != 0 || stats.Average != 0 || stats.Min != 0 || stats.Max != 0 {
		t.Errorf("stats = %+v, want zeroed", stats)
	}
	if stats.ByUser == nil || len(stats.ByUser) != 0 {
		t.Errorf("ByUser = %#v, want empty slice", stats.ByUser)
	}
	if stats.ByPeriod == nil || len(stats.ByPeriod) != 0 {
		t.Errorf("ByPeriod = %#v, want empty slice", stats.ByPeriod)
	}
}

func TestTraverseSharesOnePass(t *testing.T) {
	expenses := scenarioExpenses(t)
	ledger, stats := NewLedger(), NewStatsCollector()
	Traverse(expenses, ledger, stats)

	if got := stats.Statistics().Total; got != 22000 {
		t.Errorf("Total = %s, want 220.00", got)
	}
	balances := byUser(ledger.Balances([]int64{alice, bob, carol}))
	if balances[carol].Net != -7500 {
		t.Errorf("carol = %s, want -75.00", balances[carol].Net)
	}
}
