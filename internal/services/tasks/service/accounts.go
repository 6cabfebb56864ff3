package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/services/tasks/password"
	"github.com/louisbranch/taskmanager/internal/services/tasks/storage"
	"github.com/louisbranch/taskmanager/internal/services/tasks/user"
)

const (
	msgUserExists         = "User already exists with this email or username"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"

	msgRegisterFailed = "Server error during registration"
	msgLoginFailed    = "Server error during login"
	msgProfileFailed  = "Server error fetching profile"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

// Accounts handles registration, login, and profile lookup.
type Accounts struct {
	users  storage.UserStore
	hasher password.Hasher
	tokens TokenIssuer
}

// NewAccounts builds the account service.
func NewAccounts(users storage.UserStore, hasher password.Hasher, tokens TokenIssuer) (*Accounts, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &Accounts{users: users, hasher: hasher, tokens: tokens}, nil
}

// Register creates an account and returns it with a fresh token.
func (a *Accounts) Register(ctx context.Context, input user.RegisterInput) (result AuthResult, err error) {
	ctx, span := startSpan(ctx, "Accounts.Register")
	defer func() { err = endSpan(span, msgRegisterFailed, err) }()

	normalized, err := user.NormalizeRegisterInput(input)
	if err != nil {
		return AuthResult{}, err
	}

	exists, err := a.users.UserExists(ctx, normalized.Username, normalized.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return AuthResult{}, apperrors.New(apperrors.CodeUserAlreadyExists, msgUserExists)
	}

	hash, err := a.hasher.Hash(normalized.Password)
	if err != nil {
		return AuthResult{}, err
	}

	created, err := a.users.CreateUser(ctx, storage.NewUser{
		Username:     normalized.Username,
		Email:        normalized.Email,
		PasswordHash: hash,
	})
	if err != nil {
		// The unique constraint still decides when two registrations race.
		if errors.Is(err, storage.ErrDuplicate) {
			return AuthResult{}, apperrors.New(apperrors.CodeUserAlreadyExists, msgUserExists)
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	span.SetAttributes(attribute.Int64("taskmanager.user_id", created.ID))

	return a.issue(created)
}

// Login verifies credentials and returns the account with a fresh token. An
// unknown email and a wrong password fail identically.
func (a *Accounts) Login(ctx context.Context, input user.LoginInput) (result AuthResult, err error) {
	ctx, span := startSpan(ctx, "Accounts.Login")
	defer func() { err = endSpan(span, msgLoginFailed, err) }()

	normalized, err := user.NormalizeLoginInput(input)
	if err != nil {
		return AuthResult{}, err
	}

	creds, err := a.users.GetUserByEmail(ctx, normalized.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AuthResult{}, apperrors.New(apperrors.CodeInvalidCredentials, msgInvalidCredentials)
		}
		return AuthResult{}, fmt.Errorf("get user by email: %w", err)
	}

	match, err := password.Compare(creds.PasswordHash, normalized.Password)
	if err != nil {
		return AuthResult{}, err
	}
	if !match {
		return AuthResult{}, apperrors.New(apperrors.CodeInvalidCredentials, msgInvalidCredentials)
	}
	span.SetAttributes(attribute.Int64("taskmanager.user_id", creds.User.ID))

	return a.issue(creds.User)
}

// Profile returns the account for userID.
func (a *Accounts) Profile(ctx context.Context, userID int64) (profile user.User, err error) {
	ctx, span := startSpan(ctx, "Accounts.Profile", attribute.Int64("taskmanager.user_id", userID))
	defer func() { err = endSpan(span, msgProfileFailed, err) }()

	if userID <= 0 {
		return user.User{}, errUnauthenticated
	}
	profile, err = a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperrors.New(apperrors.CodeNotFound, msgUserNotFound)
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	return profile, nil
}

func (a *Accounts) issue(u user.User) (AuthResult, error) {
	signed, err := a.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: signed}, nil
}
