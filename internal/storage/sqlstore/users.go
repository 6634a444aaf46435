package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/storage"
)

const userColumns = `id, email, display_name, password_hash, created_at, updated_at`

// CreateUser persists a new staff account.
func (t *txStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return t.writeErr(err, "user")
	}
	return nil
}

// GetUserByEmail retrieves a user by email address.
func (t *txStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return t.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetUserByID retrieves a user by ID.
func (t *txStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return t.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (t *txStore) getUser(ctx context.Context, query, key string) (*models.User, error) {
	user := &models.User{}
	err := t.tx.QueryRowContext(ctx, query, key).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser persists a new staff account in its own transaction.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateUser(ctx, user)
	})
}

// GetUserByEmail retrieves a user outside of any business transaction.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	return user, err
}

// GetUserByID retrieves a user outside of any business transaction.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		user, err = tx.GetUserByID(ctx, id)
		return err
	})
	return user, err
}
