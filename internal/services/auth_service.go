package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pixelwallet/internal/auth"
	"pixelwallet/internal/core"
)

// MinPasswordLength is the only password policy: no complexity rules beyond
// length are applied.
const MinPasswordLength = 6

// CredentialStore is the identity persistence the authenticator needs.
type CredentialStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error)
	UserByEmail(ctx context.Context, email string) (*core.User, error)
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	store      CredentialStore
	tokens     *auth.TokenIssuer
	bcryptCost int
}

func NewAuthService(store CredentialStore, tokens *auth.TokenIssuer, bcryptCost int) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = auth.DefaultBcryptCost
	}
	return &AuthService{store: store, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a new user. Nothing sensitive is returned: on success the
// caller gets only a nil error.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: all fields are required", core.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", core.ErrInvalidInput, MinPasswordLength)
	}

	// Checked up front for a friendlier failure; the unique constraint still
	// backstops concurrent registrations.
	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: user already exists", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("check existing user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	id, err := s.store.CreateUser(ctx, username, email, hash)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", id, "username", username)
	return nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are deliberately indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, core.PublicUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", core.PublicUser{}, fmt.Errorf("%w: email and password are required", core.ErrInvalidInput)
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.PublicUser{}, core.ErrAuthFailed
		}
		return "", core.PublicUser{}, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", core.PublicUser{}, core.ErrAuthFailed
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", core.PublicUser{}, fmt.Errorf("login: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "username", user.Username)
	return token, user.Public(), nil
}

// Verify validates a session token and returns the embedded identity. This is
// the sole source of current-user context; user ids are never accepted from
// request input.
func (s *AuthService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	return s.tokens.Verify(token)
}
