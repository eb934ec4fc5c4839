package calculator

import (
	"math/rand"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	dave  int64 = 4
)

func mustExpense(t *testing.T, id int64, amount string, paidBy int64, policy models.SplitType, participants []int64, percentages map[int64]money.Percent) models.Expense {
	t.Helper()
	a := money.MustParse(amount)
	splits, err := ComputeSplits(a, policy, participants, percentages)
	if err != nil {
		t.Fatalf("expense %d: %v", id, err)
	}
	for i := range splits {
		splits[i].ExpenseID = id
	}
	return models.Expense{ID: id, GroupID: 1, Amount: a, PaidBy: paidBy, SplitType: policy, Splits: splits}
}

func byUser(balances []Balance) map[int64]Balance {
	out := make(map[int64]Balance, len(balances))
	for _, b := range balances {
		out[b.UserID] = b
	}
	return out
}

func scenarioExpenses(t *testing.T) []models.Expense {
	return []models.Expense{
		mustExpense(t, 1, "120.00", alice, models.SplitEqual, []int64{alice, bob, carol}, nil),
		mustExpense(t, 2, "100.00", bob, models.SplitPercentage, []int64{alice, bob, carol},
			map[int64]money.Percent{alice: 3000, bob: 3500, carol: 3500}),
	}
}

func TestComputeBalancesScenario(t *testing.T) {
	members := []int64{alice, bob, carol}

	first := byUser(ComputeBalances(scenarioExpenses(t)[:1], members))
	wantFirst := map[int64]string{alice: "80.00", bob: "-40.00", carol: "-40.00"}
	for user, want := range wantFirst {
		if first[user].Net != money.MustParse(want) {
			t.Errorf("after expense 1, user %d net = %s, want %s", user, first[user].Net, want)
		}
	}

	balances := ComputeBalances(scenarioExpenses(t), members)
	got := byUser(balances)
	want := map[int64]struct{ paid, owes, net string }{
		alice: {"120.00", "70.00", "50.00"},
		bob:   {"100.00", "75.00", "25.00"},
		carol: {"0.00", "75.00", "-75.00"},
	}
	for user, w := range want {
		b := got[user]
		if b.Paid.String() != w.paid || b.Owes.String() != w.owes || b.Net.String() != w.net {
			t.Errorf("user %d = paid %s owes %s net %s, want %s/%s/%s", user, b.Paid, b.Owes, b.Net, w.paid, w.owes, w.net)
		}
	}

	// Largest debt first.
	order := []int64{carol, bob, alice}
	for i, b := range balances {
		if b.UserID != order[i] {
			t.Errorf("position %d = user %d, want %d", i, b.UserID, order[i])
		}
	}
}

func TestComputeBalancesPayerAlsoParticipant(t *testing.T) {
	// Alice pays 90.00 for herself and Bob: credited 90.00 once, debited her own 45.00.
	expenses := []models.Expense{
		mustExpense(t, 1, "90.00", alice, models.SplitEqual, []int64{alice, bob}, nil),
	}
	got := byUser(ComputeBalances(expenses, []int64{alice, bob}))

	if got[alice].Paid != 9000 || got[alice].Owes != 4500 || got[alice].Net != 4500 {
		t.Errorf("alice = %+v, want paid 90.00 owes 45.00 net 45.00", got[alice])
	}
	if got[bob].Paid != 0 || got[bob].Owes != 4500 || got[bob].Net != -4500 {
		t.Errorf("bob = %+v, want paid 0 owes 45.00 net -45.00", got[bob])
	}
}

func TestComputeBalancesPayerNotParticipant(t *testing.T) {
	expenses := []models.Expense{
		mustExpense(t, 1, "30.00", alice, models.SplitEqual, []int64{bob, carol}, nil),
	}
	got := byUser(ComputeBalances(expenses, []int64{alice, bob, carol}))
	if got[alice].Net != 3000 || got[alice].Owes != 0 {
		t.Errorf("alice = %+v, want net 30.00 owes 0", got[alice])
	}
	if got[bob].Net != -1500 || got[carol].Net != -1500 {
		t.Errorf("bob/carol = %s/%s, want -15.00 each", got[bob].Net, got[carol].Net)
	}
}

func TestComputeBalancesZeroExpenseGroup(t *testing.T) {
	balances := ComputeBalances(nil, []int64{carol, alice, bob})
	if len(balances) != 3 {
		t.Fatalf("got %d balances, want 3", len(balances))
	}
	for i, b := range balances {
		if b.Net != 0 || b.Paid != 0 || b.Owes != 0 {
			t.Errorf("user %d = %+v, want all zero", b.UserID, b)
		}
		if b.UserID != int64(i+1) {
			t.Errorf("position %d = user %d, want ties ordered by user id", i, b.UserID)
		}
	}
	if transfers := ReduceToSettlements(balances); len(transfers) != 0 {
		t.Errorf("got %d transfers for a settled group, want 0", len(transfers))
	}
}

func TestComputeBalancesFormerMember(t *testing.T) {
	expenses := []models.Expense{
		mustExpense(t, 1, "60.00", alice, models.SplitEqual, []int64{alice, bob, dave}, nil),
		mustExpense(t, 2, "10.00", carol, models.SplitEqual, []int64{carol}, nil),
	}
	// Dave left with a debt, Carol left settled.
	balances := ComputeBalances(expenses, []int64{alice, bob})
	got := byUser(balances)

	if len(balances) != 3 {
		t.Fatalf("got %d balances, want 3: %+v", len(balances), balances)
	}
	if !got[dave].FormerMember || got[dave].Net != -2000 {
		t.Errorf("dave = %+v, want former member at -20.00", got[dave])
	}
	if got[alice].FormerMember || got[bob].FormerMember {
		t.Error("current members flagged as former")
	}
	if _, ok := got[carol]; ok {
		t.Error("settled former member should be omitted")
	}
}

func TestComputeBalancesConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	members := []int64{1, 2, 3, 4, 5, 6}

	for round := 0; round < 200; round++ {
		expenses := randomExpenses(t, rng, members, rng.Intn(40))

		balances := ComputeBalances(expenses, members)
		var total money.Cents
		for _, b := range balances {
			total += b.Net
		}
		if total != 0 {
			t.Fatalf("round %d: balances sum to %s, want 0", round, total)
		}

		// Identical data in a different order gives identical results.
		shuffled := make([]models.Expense, len(expenses))
		copy(shuffled, expenses)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again := ComputeBalances(shuffled, members)
		for i := range balances {
			if balances[i] != again[i] {
				t.Fatalf("round %d: order changed result: %+v vs %+v", round, balances[i], again[i])
			}
		}
	}
}

func randomExpenses(t *testing.T, rng *rand.Rand, members []int64, n int) []models.Expense {
	t.Helper()
	expenses := make([]models.Expense, 0, n)
	for i := 0; i < n; i++ {
		k := rng.Intn(len(members)) + 1
		idx := rng.Perm(len(members))[:k]
		participants := make([]int64, k)
		for j, x := range idx {
			participants[j] = members[x]
		}
		amount := money.Cents(rng.Int63n(50_000) + 1)
		payer := members[rng.Intn(len(members))]

		policy, pct := models.SplitEqual, map[int64]money.Percent(nil)
		if rng.Intn(2) == 0 {
			policy, pct = models.SplitPercentage, randomPercentages(rng, participants)
		}
		e := mustExpense(t, int64(i+1), amount.String(), payer, policy, participants, pct)
		e.CreatedAt = 1_700_000_000 + rng.Int63n(90*24*3600)
		expenses = append(expenses, e)
	}
	return expenses
}
