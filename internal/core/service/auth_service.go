package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// dummyHash is compared against when the user lookup fails, so a login
// attempt for an unknown email costs the same bcrypt work as a real one.
// Generated once from an unguessable plaintext; the comparison always fails.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService implements login, refresh, logout and registration on top of
// the credential verifier and the session store.
type AuthService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	sessions ports.SessionStore
	tokens   *TokenIssuer
	log      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	sessions ports.SessionStore,
	tokens *TokenIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{users: users, roles: roles, sessions: sessions, tokens: tokens, log: log}
}

// Login verifies credentials and opens a new session. Unknown email,
// soft-deleted user and wrong password are deliberately indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// burn the same bcrypt work as a real verification
			_, _ = VerifyPassword(password, dummyHash)
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return pair, user, nil
}

// Refresh exchanges a live refresh token for a new pair. The token is
// rotated in place; if it is no longer a member of the owner's session list
// the call fails closed with ErrInvalidSession.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*ports.TokenPair, *domain.User, error) {
	if _, err := s.tokens.ParseRefresh(presented); err != nil {
		return nil, nil, domain.ErrInvalidSession
	}

	user, err := s.users.FindByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	next, err := s.tokens.MintRefresh(user.ID)
	if err != nil {
		return nil, nil, err
	}

	rotated, err := s.sessions.Rotate(ctx, user.ID, presented, next)
	if err != nil {
		return nil, nil, err
	}
	if !rotated {
		// Lost the race against a concurrent refresh, or the token was
		// already revoked. Either way the presented token is spent.
		s.log.Warn().Str("user_id", user.ID).Msg("refresh token rotation missed, rejecting")
		return nil, nil, domain.ErrInvalidSession
	}

	access, err := s.tokens.MintAccess(user)
	if err != nil {
		return nil, nil, err
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: next}, user, nil
}

// Logout removes the token from the session list. Repeated calls with the
// same token land in the same final state.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.sessions.Remove(ctx, userID, refreshToken)
}

// Register creates a user with the USER role and an empty session list.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	userRole, err := s.roles.FindByName(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         input.Name,
		Phone:        input.Phone,
		PasswordHash: hash,
		RoleID:       userRole.ID,
		AuditStamps:  domain.AuditStamps{CreatedAt: now, UpdatedAt: now},
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	refresh, err := s.tokens.MintRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Add(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	access, err := s.tokens.MintAccess(user)
	if err != nil {
		return nil, err
	}
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
