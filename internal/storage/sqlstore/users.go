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

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkEmailFree(ctx, tx, user.Email, 0); err != nil {
			return err
		}
		id, err := s.insert(ctx, tx,
			"INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)",
			user.Name, user.Email, user.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		user.ID = id
		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := s.queryRow(ctx, s.db,
		"SELECT id, name, email, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUsersByIDs returns the users that exist among ids.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	return s.usersByIDs(ctx, s.db, ids)
}

func (s *Store) usersByIDs(ctx context.Context, q querier, ids []int64) (map[int64]models.User, error) {
	users := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	marks, args := placeholders(ids)
	rows, err := s.query(ctx, q,
		"SELECT id, name, email, created_at FROM users WHERE id IN ("+marks+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// ListUsers returns every user ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.query(ctx, s.db, "SELECT id, name, email, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser changes a user's name and email.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkEmailFree(ctx, tx, user.Email, user.ID); err != nil {
			return err
		}
		result, err := s.exec(ctx, tx,
			"UPDATE users SET name = ?, email = ? WHERE id = ?",
			user.Name, user.Email, user.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := expectOneRow(result, "user", user.ID); err != nil {
			return err
		}
		return s.queryRow(ctx, tx, "SELECT created_at FROM users WHERE id = ?", user.ID).Scan(&user.CreatedAt)
	})
}

// DeleteUser removes a user who no longer appears on any expense.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := s.queryRow(ctx, tx, `
			SELECT (SELECT COUNT(*) FROM expenses WHERE paid_by = ?)
			     + (SELECT COUNT(*) FROM expense_splits WHERE user_id = ?)`,
			userID, userID,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("failed to check user references: %w", err)
		}
		if refs > 0 {
			return apperr.Precondition("user %d is referenced by expenses and cannot be deleted", userID)
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM group_members WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		result, err := s.exec(ctx, tx, "DELETE FROM users WHERE id = ?", userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectOneRow(result, "user", userID)
	})
}

func (s *Store) checkEmailFree(ctx context.Context, q querier, email string, exceptID int64) error {
	var id int64
	err := s.queryRow(ctx, q,
		"SELECT id FROM users WHERE LOWER(email) = LOWER(?) AND id <> ?",
		email, exceptID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return apperr.Conflict("email %s is already registered", email)
}

func expectOneRow(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
