package calculator

import (
	"math/rand"
	"testing"

	"github.com/mmynk/splitledger/internal/money"
)

func TestReduceToSettlementsScenario(t *testing.T) {
	members := []int64{alice, bob, carol}
	transfers := ReduceToSettlements(ComputeBalances(scenarioExpenses(t), members))

	want := []Transfer{
		{From: carol, To: alice, Amount: 5000},
		{From: carol, To: bob, Amount: 2500},
	}
	if len(transfers) != len(want) {
		t.Fatalf("got %d transfers %+v, want %d", len(transfers), transfers, len(want))
	}
	for i := range want {
		if transfers[i] != want[i] {
			t.Errorf("transfer %d = %+v, want %+v", i, transfers[i], want[i])
		}
	}
}

func TestReduceToSettlements(t *testing.T) {
	tests := []struct {
		name     string
		balances []Balance
		want     []Transfer
	}{
		{
			name:     "empty",
			balances: nil,
			want:     []Transfer{},
		},
		{
			name:     "all settled",
			balances: []Balance{{UserID: 1}, {UserID: 2}},
			want:     []Transfer{},
		},
		{
			name:     "one debtor one creditor",
			balances: []Balance{{UserID: 1, Net: 1050}, {UserID: 2, Net: -1050}},
			want:     []Transfer{{From: 2, To: 1, Amount: 1050}},
		},
		{
			name: "largest debtor pays largest creditor first",
			balances: []Balance{
				{UserID: 1, Net: 3000},
				{UserID: 2, Net: 1000},
				{UserID: 3, Net: -500},
				{UserID: 4, Net: -3500},
			},
			want: []Transfer{
				{From: 4, To: 1, Amount: 3000},
				{From: 3, To: 2, Amount: 500},
				{From: 4, To: 2, Amount: 500},
			},
		},
		{
			name: "ties broken by lower user id",
			balances: []Balance{
				{UserID: 9, Net: 1000},
				{UserID: 5, Net: 1000},
				{UserID: 8, Net: -1000},
				{UserID: 6, Net: -1000},
			},
			want: []Transfer{
				{From: 6, To: 5, Amount: 1000},
				{From: 8, To: 9, Amount: 1000},
			},
		},
		{
			name: "unmatched dust dropped",
			balances: []Balance{
				{UserID: 1, Net: 1001},
				{UserID: 2, Net: -1000},
			},
			want: []Transfer{{From: 2, To: 1, Amount: 1000}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReduceToSettlements(tt.balances)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers %+v, want %+v", len(got), got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReduceToSettlementsZeroesBalances(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	members := []int64{1, 2, 3, 4, 5, 6, 7, 8}

	for round := 0; round < 300; round++ {
		balances := ComputeBalances(randomExpenses(t, rng, members, rng.Intn(30)), members)
		transfers := ReduceToSettlements(balances)

		net := make(map[int64]money.Cents)
		nonZero := 0
		for _, b := range balances {
			net[b.UserID] = b.Net
			if b.Net != 0 {
				nonZero++
			}
		}
		for _, tr := range transfers {
			if tr.Amount <= 0 {
				t.Fatalf("round %d: non-positive transfer %+v", round, tr)
			}
			if tr.From == tr.To {
				t.Fatalf("round %d: self transfer %+v", round, tr)
			}
			net[tr.From] += tr.Amount
			net[tr.To] -= tr.Amount
		}
		for user, n := range net {
			if n != 0 {
				t.Fatalf("round %d: user %d left at %s after transfers", round, user, n)
			}
		}
		if limit := max(0, nonZero-1); len(transfers) > limit {
			t.Fatalf("round %d: %d transfers for %d non-zero balances", round, len(transfers), nonZero)
		}
	}
}
