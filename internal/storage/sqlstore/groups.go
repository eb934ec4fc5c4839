package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/models"
)

// CreateGroup persists a new group with its members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		id, err := s.insert(ctx, tx,
			"INSERT INTO groups (name, created_at) VALUES (?, ?)",
			group.Name, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		group.ID = id
		return s.insertMembers(ctx, tx, group.ID, group.Members)
	})
}

func (s *Store) insertMembers(ctx context.Context, tx *sql.Tx, groupID int64, members []int64) error {
	for _, userID := range members {
		_, err := s.exec(ctx, tx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}
	return nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *Store) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	return s.getGroup(ctx, s.db, groupID)
}

func (s *Store) getGroup(ctx context.Context, q querier, groupID int64) (*models.Group, error) {
	group := &models.Group{}
	err := s.queryRow(ctx, q,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.members(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func (s *Store) members(ctx context.Context, q querier, groupID int64) ([]int64, error) {
	rows, err := s.query(ctx, q,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// GetGroupSummary retrieves a group with its expense count and total.
func (s *Store) GetGroupSummary(ctx context.Context, groupID int64) (*models.GroupSummary, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := s.getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	summary := &models.GroupSummary{Group: *group}
	err = s.queryRow(ctx, tx,
		"SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE group_id = ?",
		groupID,
	).Scan(&summary.ExpenseCount, &summary.TotalExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize expenses: %w", err)
	}
	return summary, nil
}

// ListGroups returns all groups with members and expense totals, ordered by ID.
func (s *Store) ListGroups(ctx context.Context) ([]models.GroupSummary, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.query(ctx, tx, `
		SELECT g.id, g.name, g.created_at, COUNT(e.id), COALESCE(SUM(e.amount_cents), 0)
		FROM groups g
		LEFT JOIN expenses e ON e.group_id = g.id
		GROUP BY g.id, g.name, g.created_at
		ORDER BY g.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := []models.GroupSummary{}
	for rows.Next() {
		var g models.GroupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.ExpenseCount, &g.TotalExpenses); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for i := range groups {
		members, err := s.members(ctx, tx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}
	return groups, nil
}

// ListGroupsByUser returns the groups a user currently belongs to, ordered by name.
func (s *Store) ListGroupsByUser(ctx context.Context, userID int64) ([]models.Group, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.query(ctx, tx, `
		SELECT g.id, g.name, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.name, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for i := range groups {
		members, err := s.members(ctx, tx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}
	return groups, nil
}

// UpdateGroup replaces a group's name and member set.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx, "UPDATE groups SET name = ? WHERE id = ?", group.Name, group.ID)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		if err := expectOneRow(result, "group", group.ID); err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM group_members WHERE group_id = ?", group.ID); err != nil {
			return fmt.Errorf("failed to clear group members: %w", err)
		}
		if err := s.insertMembers(ctx, tx, group.ID, group.Members); err != nil {
			return err
		}
		return s.queryRow(ctx, tx, "SELECT created_at FROM groups WHERE id = ?", group.ID).Scan(&group.CreatedAt)
	})
}

// DeleteGroup removes a group that has no expenses.
func (s *Store) DeleteGroup(ctx context.Context, groupID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := s.queryRow(ctx, tx, "SELECT COUNT(*) FROM expenses WHERE group_id = ?", groupID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count expenses: %w", err)
		}
		if count > 0 {
			return apperr.Precondition("group %d has %d expenses and cannot be deleted", groupID, count)
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}
		result, err := s.exec(ctx, tx, "DELETE FROM groups WHERE id = ?", groupID)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return expectOneRow(result, "group", groupID)
	})
}
