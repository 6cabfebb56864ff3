package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

// CreateUser inserts a new account. Username or email collisions return
// storage.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, input storage.NewUser) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Email) == "" {
		return user.User{}, fmt.Errorf("username and email are required")
	}
	if input.PasswordHash == "" {
		return user.User{}, fmt.Errorf("password hash is required")
	}

	createdAt := s.clock()
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		input.Username, input.Email, input.PasswordHash, toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, storage.ErrDuplicate
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("user id: %w", err)
	}
	return user.User{
		ID:        id,
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: fromMillis(toMillis(createdAt)),
	}, nil
}

// GetUser returns an account without its password hash.
func (s *Store) GetUser(ctx context.Context, userID int64) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = ?`, userID)

	var u user.User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// GetUserByEmail returns an account with its password hash for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.UserCredentials, error) {
	if err := s.ready(ctx); err != nil {
		return storage.UserCredentials{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`, email)

	var creds storage.UserCredentials
	var createdAt int64
	if err := row.Scan(&creds.User.ID, &creds.User.Username, &creds.User.Email, &creds.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserCredentials{}, storage.ErrNotFound
		}
		return storage.UserCredentials{}, fmt.Errorf("get user by email: %w", err)
	}
	creds.User.CreatedAt = fromMillis(createdAt)
	return creds, nil
}

// UserExists reports whether any account already uses username or email.
func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE email = ? OR username = ? LIMIT 1`, email, username).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}
