package postgres

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

	var u user.User
	err := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4)
		 RETURNING id, username, email, created_at`,
		input.Username, input.Email, input.PasswordHash, s.clock(),
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, storage.ErrDuplicate
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// GetUser returns an account without its password hash.
func (s *Store) GetUser(ctx context.Context, userID int64) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	var u user.User
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// GetUserByEmail returns an account with its password hash for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.UserCredentials, error) {
	if err := s.ready(ctx); err != nil {
		return storage.UserCredentials{}, err
	}
	var creds storage.UserCredentials
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`, email,
	).Scan(&creds.User.ID, &creds.User.Username, &creds.User.Email, &creds.PasswordHash, &creds.User.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserCredentials{}, storage.ErrNotFound
		}
		return storage.UserCredentials{}, fmt.Errorf("get user by email: %w", err)
	}
	creds.User.CreatedAt = creds.User.CreatedAt.UTC()
	return creds, nil
}

// UserExists reports whether any account already uses username or email.
func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var exists bool
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`, email, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
