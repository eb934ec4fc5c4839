package calculator

import "github.com/mmynk/splitledger/internal/models"

// Visitor observes expenses during a single pass over an expense set.
type Visitor interface {
	// VisitExpense is called once per expense, before its splits.
	VisitExpense(e *models.Expense)
	// VisitSplit is called once per split of the current expense.
	VisitSplit(e *models.Expense, s *models.ExpenseSplit)
}

// Traverse walks expenses once, handing every expense and each of its splits
// to all visitors in order.
func Traverse(expenses []models.Expense, visitors ...Visitor) {
	for i := range expenses {
		e := &expenses[i]
		for _, v := range visitors {
			v.VisitExpense(e)
		}
		for j := range e.Splits {
			s := &e.Splits[j]
			for _, v := range visitors {
				v.VisitSplit(e, s)
			}
		}
	}
}
