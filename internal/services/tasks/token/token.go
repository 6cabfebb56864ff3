// Package token issues and verifies the signed bearer tokens that carry a
// caller's identity between requests.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/platform/requestctx"
)

const (
	// MinSecretLength is the shortest accepted HMAC secret, in bytes.
	MinSecretLength = 32
	// DefaultTTL is the token lifetime when none is configured.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultIssuer is the iss claim when none is configured.
	DefaultIssuer = "taskmanager"

	invalidTokenMessage = "Token is not valid"
)

// Config defines how tokens are signed and validated.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Manager signs and verifies HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Manager{
		secret: secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the given user.
func (m *Manager) Issue(userID int64, username string) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user id must be positive")
	}
	now := m.now().UTC().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID:   userID,
		Username: username,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and claims of raw and returns the identity it
// carries. Every failure is an UNAUTHENTICATED error with the same message;
// the reason is kept in metadata for logs.
func (m *Manager) Verify(raw string) (requestctx.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return requestctx.Identity{}, invalid("token is empty")
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Identity{}, mapJWTError(err)
	}

	if parsed.Issuer != m.issuer {
		return requestctx.Identity{}, invalid("issuer mismatch")
	}
	if parsed.ExpiresAt == nil {
		return requestctx.Identity{}, invalid("exp is required")
	}
	now := m.now().UTC()
	if !parsed.ExpiresAt.Time.After(now) {
		return requestctx.Identity{}, invalid("token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return requestctx.Identity{}, invalid("token not active yet")
	}
	if parsed.UserID <= 0 || parsed.Subject != strconv.FormatInt(parsed.UserID, 10) {
		return requestctx.Identity{}, invalid("subject mismatch")
	}

	return requestctx.Identity{UserID: parsed.UserID, Username: parsed.Username}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid("signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid("alg is invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid("token is malformed")
	default:
		return invalid("token is invalid")
	}
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthenticated, invalidTokenMessage, map[string]string{"Reason": reason})
}
