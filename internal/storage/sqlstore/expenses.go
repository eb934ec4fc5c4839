package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "id, group_id, description, amount_cents, paid_by, split_type, created_at"

// CreateExpense persists an expense together with its splits.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		id, err := s.insert(ctx, tx,
			"INSERT INTO expenses (group_id, description, amount_cents, paid_by, split_type, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			expense.GroupID, expense.Description, int64(expense.Amount), expense.PaidBy, string(expense.SplitType), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		expense.ID = id
		return s.insertSplits(ctx, tx, expense)
	})
}

func (s *Store) insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID

		var pct sql.NullInt64
		if split.Percentage != nil {
			pct = sql.NullInt64{Int64: int64(*split.Percentage), Valid: true}
		}
		_, err := s.exec(ctx, tx,
			"INSERT INTO expense_splits (expense_id, user_id, amount_cents, percentage_bp) VALUES (?, ?, ?, ?)",
			split.ExpenseID, split.UserID, int64(split.Amount), pct,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := s.queryRow(ctx, tx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expenses := []models.Expense{*expense}
	if err := s.attachSplits(ctx, tx, expenses, "expense_id = ?", expenseID); err != nil {
		return nil, err
	}
	return &expenses[0], nil
}

// ListExpenses returns expenses newest first.
func (s *Store) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]models.Expense, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		where string
		args  []any
	)
	if filter.GroupID != 0 {
		where = " WHERE group_id = ?"
		args = append(args, filter.GroupID)
	}
	query := "SELECT " + expenseColumns + " FROM expenses" + where + " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	expenses, err := s.scanExpenses(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	if filter.WithSplits && len(expenses) > 0 {
		splitWhere, splitArgs := "", []any(nil)
		if filter.Limit > 0 {
			ids := make([]int64, len(expenses))
			for i, e := range expenses {
				ids[i] = e.ID
			}
			marks, idArgs := placeholders(ids)
			splitWhere, splitArgs = "expense_id IN ("+marks+")", idArgs
		} else if filter.GroupID != 0 {
			splitWhere, splitArgs = "expense_id IN (SELECT id FROM expenses WHERE group_id = ?)", []any{filter.GroupID}
		}
		if err := s.attachSplits(ctx, tx, expenses, splitWhere, splitArgs...); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// UpdateExpense replaces an expense and all of its splits.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx,
			"UPDATE expenses SET description = ?, amount_cents = ?, paid_by = ?, split_type = ? WHERE id = ? AND group_id = ?",
			expense.Description, int64(expense.Amount), expense.PaidBy, string(expense.SplitType), expense.ID, expense.GroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := expectOneRow(result, "expense", expense.ID); err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete expense splits: %w", err)
		}
		if err := s.insertSplits(ctx, tx, expense); err != nil {
			return err
		}
		return s.queryRow(ctx, tx, "SELECT created_at FROM expenses WHERE id = ?", expense.ID).Scan(&expense.CreatedAt)
	})
}

// DeleteExpense removes an expense and its splits.
func (s *Store) DeleteExpense(ctx context.Context, expenseID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
			return fmt.Errorf("failed to delete expense splits: %w", err)
		}
		result, err := s.exec(ctx, tx, "DELETE FROM expenses WHERE id = ?", expenseID)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return expectOneRow(result, "expense", expenseID)
	})
}

// LoadGroupLedger reads a group, its expenses with splits and the users
// involved inside one read transaction, so a concurrent write is seen either
// completely or not at all.
func (s *Store) LoadGroupLedger(ctx context.Context, groupID int64) (*storage.GroupLedger, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := s.getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.scanExpenses(ctx, tx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id DESC",
		groupID,
	)
	if err != nil {
		return nil, err
	}
	if err := s.attachSplits(ctx, tx, expenses,
		"expense_id IN (SELECT id FROM expenses WHERE group_id = ?)", groupID,
	); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range group.Members {
		add(m)
	}
	for _, e := range expenses {
		add(e.PaidBy)
		for _, sp := range e.Splits {
			add(sp.UserID)
		}
	}
	users, err := s.usersByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	return &storage.GroupLedger{Group: *group, Expenses: expenses, Users: users}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e         models.Expense
		amount    int64
		splitType string
	)
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &amount, &e.PaidBy, &splitType, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Amount = money.Cents(amount)
	e.SplitType = models.SplitType(splitType)
	return &e, nil
}

func (s *Store) scanExpenses(ctx context.Context, q querier, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// attachSplits loads the splits matching where and attaches them to the
// expenses in the slice. Splits of expenses outside the slice are ignored.
func (s *Store) attachSplits(ctx context.Context, q querier, expenses []models.Expense, where string, args ...any) error {
	index := make(map[int64]int, len(expenses))
	for i := range expenses {
		index[expenses[i].ID] = i
		expenses[i].Splits = []models.ExpenseSplit{}
	}

	query := "SELECT expense_id, user_id, amount_cents, percentage_bp FROM expense_splits"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY expense_id, user_id"

	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			split  models.ExpenseSplit
			amount int64
			pct    sql.NullInt64
		)
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &amount, &pct); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		i, ok := index[split.ExpenseID]
		if !ok {
			continue
		}
		split.Amount = money.Cents(amount)
		if pct.Valid {
			p := money.Percent(pct.Int64)
			split.Percentage = &p
		}
		expenses[i].Splits = append(expenses[i].Splits, split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return nil
}
