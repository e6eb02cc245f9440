package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// TokenPair is issued on successful login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries public sign-up data. The USER role is assigned by
// the service; callers cannot pick a role.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// AuthService orchestrates login, refresh and logout over the credential
// verifier and the session store.
type AuthService interface {
	// Login verifies credentials and opens a new session. Missing user,
	// soft-deleted user and wrong password all fail with
	// domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)

	// Refresh exchanges a live refresh token for a new pair, rotating the
	// session in place. A token absent from the owner's session list fails
	// with domain.ErrInvalidSession; no new token is issued in that case.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *domain.User, error)

	// Logout removes the token from the user's session list. Idempotent:
	// removing an absent token is not an error.
	Logout(ctx context.Context, userID, refreshToken string) error

	// Register creates a user with the USER role and an empty session list.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
}
