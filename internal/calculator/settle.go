package calculator

import (
	"github.com/mmynk/splitledger/internal/money"
)

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From   int64 // Person who owes
	To     int64 // Person who is owed
	Amount money.Cents
}

type party struct {
	userID int64
	amount money.Cents // always positive
}

// ReduceToSettlements turns net balances into payments that bring every
// balance to zero.
//
// Algorithm (greedy largest-magnitude matching):
// - Partition into debtors (net < 0) and creditors (net > 0); zeros are skipped
// - Repeatedly pair the largest debt with the largest credit, ties by lower user id
// - Settle min(debt, credit) and drop whichever side reaches zero
//
// Each step removes at least one party, so at most n-1 transfers are produced
// for n non-zero balances. The result is not always the true minimum.
// Unmatched remainder, which only occurs when the input does not sum to zero,
// is dropped.
func ReduceToSettlements(balances []Balance) []Transfer {
	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.Net < 0:
			debtors = append(debtors, party{userID: b.UserID, amount: -b.Net})
		case b.Net > 0:
			creditors = append(creditors, party{userID: b.UserID, amount: b.Net})
		}
	}

	transfers := []Transfer{}
	for len(debtors) > 0 && len(creditors) > 0 {
		di, ci := largest(debtors), largest(creditors)
		d, c := &debtors[di], &creditors[ci]

		amount := min(d.amount, c.amount)
		transfers = append(transfers, Transfer{From: d.userID, To: c.userID, Amount: amount})

		d.amount -= amount
		c.amount -= amount
		if d.amount == 0 {
			debtors = remove(debtors, di)
		}
		if c.amount == 0 {
			creditors = remove(creditors, ci)
		}
	}
	return transfers
}

func largest(parties []party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		p, b := parties[i], parties[best]
		if p.amount > b.amount || (p.amount == b.amount && p.userID < b.userID) {
			best = i
		}
	}
	return best
}

func remove(parties []party, i int) []party {
	return append(parties[:i], parties[i+1:]...)
}
