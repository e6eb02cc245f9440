package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

func signRefresh(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"jti": "fixed",
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}
	return token
}

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubSessions struct {
	mu   sync.Mutex
	cap  int
	byID map[string][]string
}

func newStubSessions(cap int) *stubSessions {
	return &stubSessions{cap: cap, byID: make(map[string][]string)}
}

func (s *stubSessions) Add(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byID[userID], token)
	if over := len(list) - s.cap; over > 0 {
		list = list[over:]
	}
	s.byID[userID] = list
	return nil
}

func (s *stubSessions) Rotate(_ context.Context, userID, old, new string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.byID[userID] {
		if t == old {
			s.byID[userID][i] = new
			return true, nil
		}
	}
	return false, nil
}

func (s *stubSessions) Remove(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byID[userID]
	for i, t := range list {
		if t == token {
			s.byID[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubSessions) Contains(_ context.Context, userID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubSessions) PruneExpired(_ context.Context, isLive func(string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, list := range s.byID {
		kept := list[:0]
		for _, t := range list {
			if isLive(t) {
				kept = append(kept, t)
			}
		}
		s.byID[id] = kept
	}
	return nil
}

func (s *stubSessions) list(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.byID[userID]))
	copy(out, s.byID[userID])
	return out
}

type stubUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	sessions *stubSessions
	nextID   int
}

func newStubUserRepo(sessions *stubSessions) *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User), sessions: sessions}
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *u
	if clone.ID == "" {
		clone.ID = "u" + string(rune('0'+r.nextID))
	}
	r.byID[clone.ID] = &clone
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return r.add(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.IsDeleted {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email && !u.IsDeleted {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.byID))
	for id, u := range r.byID {
		if !u.IsDeleted {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		ok, _ := r.sessions.Contains(ctx, id, token)
		if ok {
			return r.FindByID(ctx, id)
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) List(context.Context, ports.ListFilter) ([]*domain.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) Update(context.Context, string, ports.UpdateUserInput, domain.ActorRef) error {
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id string, _ domain.ActorRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.IsDeleted = true
	}
	return nil
}

func (r *stubUserRepo) Restore(context.Context, string) error { return nil }

type stubRoleRepo struct {
	byName map[string]*domain.Role
}

func (r *stubRoleRepo) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	return role, nil
}

func (r *stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	for _, role := range r.byName {
		if role.ID == id {
			return role, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	role, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return role, nil
}

func (r *stubRoleRepo) List(context.Context, ports.ListFilter) ([]*domain.Role, int64, error) {
	return nil, 0, nil
}

func (r *stubRoleRepo) Update(context.Context, string, ports.UpdateRoleInput, domain.ActorRef) error {
	return nil
}

func (r *stubRoleRepo) SoftDelete(context.Context, string, domain.ActorRef) error { return nil }

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	sessions *stubSessions
	tokens   *TokenIssuer
}

func newAuthFixture(t *testing.T, sessionCap int) *authFixture {
	t.Helper()
	sessions := newStubSessions(sessionCap)
	users := newStubUserRepo(sessions)
	roles := &stubRoleRepo{byName: map[string]*domain.Role{
		domain.RoleUser: {ID: "role-user", Name: domain.RoleUser, IsActive: true},
	}}
	tokens := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	return &authFixture{
		svc:      NewAuthService(users, roles, sessions, tokens, zerolog.Nop()),
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

func (f *authFixture) seedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return f.users.add(&domain.User{Email: email, Name: "Test User", PasswordHash: hash, RoleID: "role-user"})
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLoginSuccessOpensSession(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	pair, got, err := f.svc.Login(context.Background(), "Alice@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a complete token pair")
	}
	if got.ID != u.ID {
		t.Fatalf("got user %q, want %q", got.ID, u.ID)
	}
	if sessions := f.sessions.list(u.ID); len(sessions) != 1 || sessions[0] != pair.RefreshToken {
		t.Fatalf("session list = %v, want the issued refresh token", sessions)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	cases := map[string]struct {
		email    string
		password string
	}{
		"unknown email":  {"nobody@example.com", "correct horse"},
		"wrong password": {"alice@example.com", "battery staple"},
		"empty password": {"alice@example.com", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.svc.Login(context.Background(), tc.email, tc.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	if sessions := f.sessions.list(u.ID); len(sessions) != 0 {
		t.Fatalf("failed logins must not open sessions, got %v", sessions)
	}
}

func TestLoginSoftDeletedUserFails(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	if err := f.users.SoftDelete(context.Background(), u.ID, domain.ActorRef{}); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	_, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginEvictsOldestBeyondCap(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	var pairs []*ports.TokenPair
	for i := 0; i < 3; i++ {
		pair, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
		if err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		pairs = append(pairs, pair)
	}

	sessions := f.sessions.list(u.ID)
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}
	if sessions[0] != pairs[1].RefreshToken || sessions[1] != pairs[2].RefreshToken {
		t.Fatal("expected the two newest refresh tokens to survive")
	}

	// The evicted token is spent: refreshing with it must fail closed.
	if _, _, err := f.svc.Refresh(context.Background(), pairs[0].RefreshToken); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("refresh with evicted token: err = %v, want ErrInvalidSession", err)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestRefreshRotatesInPlace(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	first, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	pair, got, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got user %q, want %q", got.ID, u.ID)
	}

	sessions := f.sessions.list(u.ID)
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2 after rotation", len(sessions))
	}
	// Rotation replaces the token in its slot, it does not re-append.
	if sessions[0] != pair.RefreshToken || sessions[1] != second.RefreshToken {
		t.Fatalf("sessions = %v, want rotated token in the first slot", sessions)
	}

	// The presented token is spent.
	if _, _, err := f.svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("reused token: err = %v, want ErrInvalidSession", err)
	}
}

func TestRefreshRejectsForgedAndExpiredTokens(t *testing.T) {
	f := newAuthFixture(t, 2)
	f.seedUser(t, "alice@example.com", "correct horse")

	forged, err := NewTokenIssuer("access-secret", "wrong-secret", time.Minute, time.Hour).MintRefresh("u1")
	if err != nil {
		t.Fatalf("MintRefresh: %v", err)
	}

	expired := signRefresh(t, "refresh-secret", "u1", time.Now().Add(-time.Hour))

	for name, token := range map[string]string{
		"garbage": "not.a.jwt",
		"forged":  forged,
		"expired": expired,
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := f.svc.Refresh(context.Background(), token); !errors.Is(err, domain.ErrInvalidSession) {
				t.Fatalf("err = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newAuthFixture(t, 2)
	f.seedUser(t, "alice@example.com", "correct horse")

	pair, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const attempts = 16
	results := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, _, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
			results <- err
		}()
	}
	start.Done()

	var wins, losses int
	for i := 0; i < attempts; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidSession):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if losses != attempts-1 {
		t.Fatalf("losses = %d, want %d", losses, attempts-1)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	f := newAuthFixture(t, 2)
	u := f.seedUser(t, "alice@example.com", "correct horse")

	pair, _, err := f.svc.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.Logout(context.Background(), u.ID, pair.RefreshToken); err != nil {
			t.Fatalf("Logout call %d: %v", i+1, err)
		}
	}
	if sessions := f.sessions.list(u.ID); len(sessions) != 0 {
		t.Fatalf("sessions after logout = %v, want none", sessions)
	}

	if _, _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("refresh after logout: err = %v, want ErrInvalidSession", err)
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegisterAssignsUserRole(t *testing.T) {
	f := newAuthFixture(t, 2)

	created, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "Bob@Example.com",
		Password: "battery staple",
		Name:     "Bob",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Email != "bob@example.com" {
		t.Fatalf("email = %q, want lowercased", created.Email)
	}
	if created.RoleID != "role-user" {
		t.Fatalf("role = %q, want the USER role", created.RoleID)
	}
	if created.PasswordHash == "battery staple" || created.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if sessions := f.sessions.list(created.ID); len(sessions) != 0 {
		t.Fatal("registration must not open a session")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, 2)
	f.seedUser(t, "alice@example.com", "correct horse")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "ALICE@example.com",
		Password: "battery staple",
		Name:     "Imposter",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}
