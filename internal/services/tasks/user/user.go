package user

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/services/tasks/password"
	"golang.org/x/text/unicode/norm"
)

const (
	// MinUsernameLength is the shortest accepted username, in characters.
	MinUsernameLength = 3
	// MaxUsernameLength is the longest accepted username, in characters.
	MaxUsernameLength = 50
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6
	// maxEmailLength follows the RFC 5321 path limit.
	maxEmailLength = 254
)

const (
	msgUsernameLength   = "Username must be between 3 and 50 characters"
	msgInvalidEmail     = "Please provide a valid email"
	msgPasswordLength   = "Password must be at least 6 characters long"
	msgPasswordTooLong  = "Password must not exceed 72 bytes"
	msgPasswordRequired = "Password is required"
)

// User is the public view of an account. The password hash never leaves the
// storage and service layers.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterInput is the untrusted registration payload.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the untrusted login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeRegisterInput trims and normalizes registration input and reports
// every rejected field at once.
func NormalizeRegisterInput(input RegisterInput) (RegisterInput, error) {
	var fields []apperrors.FieldViolation

	input.Username = NormalizeUsername(input.Username)
	if n := utf8.RuneCountInString(input.Username); n < MinUsernameLength || n > MaxUsernameLength {
		fields = append(fields, apperrors.FieldViolation{Field: "username", Message: msgUsernameLength})
	}

	email, ok := NormalizeEmail(input.Email)
	if !ok {
		fields = append(fields, apperrors.FieldViolation{Field: "email", Message: msgInvalidEmail})
	}
	input.Email = email

	switch {
	case utf8.RuneCountInString(input.Password) < MinPasswordLength:
		fields = append(fields, apperrors.FieldViolation{Field: "password", Message: msgPasswordLength})
	case len(input.Password) > password.MaxLength:
		fields = append(fields, apperrors.FieldViolation{Field: "password", Message: msgPasswordTooLong})
	}

	if len(fields) > 0 {
		return RegisterInput{}, apperrors.Validation(fields)
	}
	return input, nil
}

// NormalizeLoginInput normalizes the email and requires a non-empty password.
func NormalizeLoginInput(input LoginInput) (LoginInput, error) {
	var fields []apperrors.FieldViolation

	email, ok := NormalizeEmail(input.Email)
	if !ok {
		fields = append(fields, apperrors.FieldViolation{Field: "email", Message: msgInvalidEmail})
	}
	input.Email = email

	if input.Password == "" {
		fields = append(fields, apperrors.FieldViolation{Field: "password", Message: msgPasswordRequired})
	}

	if len(fields) > 0 {
		return LoginInput{}, apperrors.Validation(fields)
	}
	return input, nil
}

// NormalizeUsername trims surrounding whitespace and applies NFC.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// NormalizeEmail trims and lower-cases an email and reports whether it is a
// bare address. Display-name forms like "Alice <a@b.c>" are rejected.
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmailLength {
		return email, false
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return email, false
	}
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" || !strings.Contains(domain, ".") {
		return email, false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return email, false
	}
	return email, true
}
