package calculator

import (
	"slices"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// percentTolerance is how far percentages may drift from 100% (0.01 points).
const percentTolerance money.Percent = 1

// ComputeSplits divides amount among participants according to policy.
// percentages is only read for models.SplitPercentage and must cover exactly
// the participant set.
//
// Algorithm:
// - equal: each share = amount / n rounded half-to-even to the cent
// - percentage: each share = amount * pct / 100 rounded half-to-even
// - the rounding residual goes to one participant (lowest id for equal,
// largest percentage for percentage) so the shares sum to amount exactly
//
// The returned splits are ordered by user id and have no ExpenseID.
func ComputeSplits(amount money.Cents, policy models.SplitType, participants []int64, percentages map[int64]money.Percent) ([]models.ExpenseSplit, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive, got %s", amount)
	}
	if amount > money.MaxAmount {
		return nil, apperr.Validation("amount must not exceed %s, got %s", money.MaxAmount, amount)
	}
	users, err := uniqueParticipants(participants)
	if err != nil {
		return nil, err
	}

	var splits []models.ExpenseSplit
	switch policy {
	case models.SplitEqual:
		splits = equalSplits(amount, users)
	case models.SplitPercentage:
		splits, err = percentageSplits(amount, users, percentages)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation("unknown split type %q", policy)
	}

	var sum money.Cents
	for _, s := range splits {
		sum += s.Amount
	}
	if sum != amount {
		return nil, apperr.Invariant("%s split of %s sums to %s", policy, amount, sum)
	}
	return splits, nil
}

func uniqueParticipants(participants []int64) ([]int64, error) {
	if len(participants) == 0 {
		return nil, apperr.Validation("at least one participant is required")
	}
	users := slices.Clone(participants)
	slices.Sort(users)
	for i := 1; i < len(users); i++ {
		if users[i] == users[i-1] {
			return nil, apperr.Validation("duplicate participant %d", users[i])
		}
	}
	return users, nil
}

func equalSplits(amount money.Cents, users []int64) []models.ExpenseSplit {
	n := int64(len(users))
	share := money.Cents(money.DivRound(int64(amount), n))

	shares := make([]money.Cents, len(users))
	order := make([]int, len(users))
	for i := range users {
		shares[i] = share
		order[i] = i
	}
	assignResidual(shares, order, amount-share*money.Cents(n))

	splits := make([]models.ExpenseSplit, len(users))
	for i, u := range users {
		splits[i] = models.ExpenseSplit{UserID: u, Amount: shares[i]}
	}
	return splits
}

func percentageSplits(amount money.Cents, users []int64, percentages map[int64]money.Percent) ([]models.ExpenseSplit, error) {
	if len(percentages) != len(users) {
		return nil, apperr.Validation("percentages must be given for exactly the %d participants, got %d", len(users), len(percentages))
	}

	var total money.Percent
	for _, u := range users {
		p, ok := percentages[u]
		if !ok {
			return nil, apperr.Validation("missing percentage for participant %d", u)
		}
		if p <= 0 || p > money.Whole {
			return nil, apperr.Validation("percentage for participant %d must be in (0, 100], got %s", u, p)
		}
		total += p
	}
	if diff := total - money.Whole; diff > percentTolerance || diff < -percentTolerance {
		return nil, apperr.Validation("percentages must sum to 100, got %s", total)
	}

	shares := make([]money.Cents, len(users))
	var sum money.Cents
	for i, u := range users {
		shares[i] = money.MulPercent(amount, percentages[u])
		sum += shares[i]
	}

	// Largest percentage first, then ascending user id.
	order := make([]int, len(users))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		pa, pb := percentages[users[a]], percentages[users[b]]
		if pa != pb {
			if pa > pb {
				return -1
			}
			return 1
		}
		return 0
	})
	assignResidual(shares, order, amount-sum)

	splits := make([]models.ExpenseSplit, len(users))
	for i, u := range users {
		p := percentages[u]
		splits[i] = models.ExpenseSplit{UserID: u, Amount: shares[i], Percentage: &p}
	}
	return splits, nil
}

// assignResidual adds residual to shares[order[0]]. When that would leave the
// share negative the residual is spread one cent at a time following order.
func assignResidual(shares []money.Cents, order []int, residual money.Cents) {
	if residual == 0 {
		return
	}
	first := order[0]
	if shares[first]+residual >= 0 {
		shares[first] += residual
		return
	}

	step := money.Cents(1)
	if residual < 0 {
		step = -1
	}
	for residual != 0 {
		for _, i := range order {
			if residual == 0 {
				break
			}
			if shares[i]+step < 0 {
				continue
			}
			shares[i] += step
			residual -= step
		}
	}
}
