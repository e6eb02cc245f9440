package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubPermRepo struct {
	byID    map[string]domain.Permission
	queries int
}

func (r *stubPermRepo) Create(_ context.Context, p *domain.Permission) (*domain.Permission, error) {
	return p, nil
}

func (r *stubPermRepo) FindByID(_ context.Context, id string) (*domain.Permission, error) {
	p, ok := r.byID[id]
	if !ok || p.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *stubPermRepo) FindByIDs(_ context.Context, ids []string) ([]domain.Permission, error) {
	r.queries++
	out := make([]domain.Permission, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok && !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPermRepo) FindByMethodAndPath(context.Context, string, string) (*domain.Permission, error) {
	return nil, domain.ErrNotFound
}

func (r *stubPermRepo) List(context.Context, ports.ListFilter) ([]*domain.Permission, int64, error) {
	return nil, 0, nil
}

func (r *stubPermRepo) Update(context.Context, string, ports.UpdatePermissionInput, domain.ActorRef) error {
	return nil
}

func (r *stubPermRepo) SoftDelete(context.Context, string, domain.ActorRef) error { return nil }

type stubPermCache struct {
	entries map[string][]domain.Permission
	hits    int
}

func newStubPermCache() *stubPermCache {
	return &stubPermCache{entries: make(map[string][]domain.Permission)}
}

func (c *stubPermCache) Get(_ context.Context, roleID string) ([]domain.Permission, bool, error) {
	perms, ok := c.entries[roleID]
	if ok {
		c.hits++
	}
	return perms, ok, nil
}

func (c *stubPermCache) Set(_ context.Context, roleID string, perms []domain.Permission) error {
	c.entries[roleID] = perms
	return nil
}

func (c *stubPermCache) Delete(_ context.Context, roleID string) error {
	delete(c.entries, roleID)
	return nil
}

func (c *stubPermCache) Flush(context.Context) error {
	c.entries = make(map[string][]domain.Permission)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type resolverFixture struct {
	resolver *RoleResolver
	roles    *stubRoleRepo
	perms    *stubPermRepo
	cache    *stubPermCache
}

func newResolverFixture(ttl time.Duration) *resolverFixture {
	perms := &stubPermRepo{byID: map[string]domain.Permission{
		"p1": {ID: "p1", Method: "GET", Path: "/v1/products"},
		"p2": {ID: "p2", Method: "GET", Path: "/v1/products/:id"},
	}}
	roles := &stubRoleRepo{byName: map[string]*domain.Role{
		domain.RoleCollaborator: {
			ID:            "role-ctv",
			Name:          domain.RoleCollaborator,
			IsActive:      true,
			PermissionIDs: []string{"p1", "p2"},
		},
	}}
	cache := newStubPermCache()
	return &resolverFixture{
		resolver: NewRoleResolver(roles, perms, cache, ttl, zerolog.Nop()),
		roles:    roles,
		perms:    perms,
		cache:    cache,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestResolveReturnsRolePermissions(t *testing.T) {
	f := newResolverFixture(time.Minute)

	perms, err := f.resolver.Resolve(context.Background(), "role-ctv")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("permission count = %d, want 2", len(perms))
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	f := newResolverFixture(time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
	}
	if f.perms.queries != 1 {
		t.Fatalf("storage queries = %d, want 1 (local cache hit)", f.perms.queries)
	}
}

func TestResolveFallsThroughToSharedCache(t *testing.T) {
	f := newResolverFixture(time.Minute)
	f.cache.entries["role-other"] = []domain.Permission{{ID: "px", Method: "GET", Path: "/v1/users"}}

	perms, err := f.resolver.Resolve(context.Background(), "role-other")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 1 || perms[0].ID != "px" {
		t.Fatalf("perms = %v, want shared-cache entry", perms)
	}
	if f.perms.queries != 0 {
		t.Fatal("shared cache hit must not touch storage")
	}
}

func TestResolveUnknownRoleIsEmptyNotError(t *testing.T) {
	f := newResolverFixture(time.Minute)

	perms, err := f.resolver.Resolve(context.Background(), "no-such-role")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("perms = %v, want empty set", perms)
	}
}

func TestResolveInactiveRoleIsEmpty(t *testing.T) {
	f := newResolverFixture(time.Minute)
	f.roles.byName[domain.RoleCollaborator].IsActive = false

	perms, err := f.resolver.Resolve(context.Background(), "role-ctv")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("perms = %v, want empty set for inactive role", perms)
	}
}

func TestResolveDropsDeletedPermissionReferences(t *testing.T) {
	f := newResolverFixture(time.Minute)
	p := f.perms.byID["p2"]
	p.IsDeleted = true
	f.perms.byID["p2"] = p

	perms, err := f.resolver.Resolve(context.Background(), "role-ctv")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 1 || perms[0].ID != "p1" {
		t.Fatalf("perms = %v, want only the live permission", perms)
	}
}

func TestResolveDedupesPermissionReferences(t *testing.T) {
	f := newResolverFixture(time.Minute)
	f.roles.byName[domain.RoleCollaborator].PermissionIDs = []string{"p1", "p1", "p2", "p1"}

	perms, err := f.resolver.Resolve(context.Background(), "role-ctv")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("permission count = %d, want 2 after dedupe", len(perms))
	}
}

func TestInvalidateDropsRoleEverywhere(t *testing.T) {
	f := newResolverFixture(time.Minute)

	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	f.resolver.Invalidate(context.Background(), "role-ctv")

	if _, ok := f.cache.entries["role-ctv"]; ok {
		t.Fatal("shared cache entry must be deleted")
	}
	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.perms.queries != 2 {
		t.Fatalf("storage queries = %d, want 2 (re-resolved after invalidation)", f.perms.queries)
	}
}

func TestInvalidateAllFlushes(t *testing.T) {
	f := newResolverFixture(time.Minute)

	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	f.resolver.Invalidate(context.Background(), "")

	if len(f.cache.entries) != 0 {
		t.Fatal("shared cache must be flushed")
	}
	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.perms.queries != 2 {
		t.Fatalf("storage queries = %d, want 2 after full flush", f.perms.queries)
	}
}

func TestResolveExpiresLocalEntries(t *testing.T) {
	f := newResolverFixture(time.Millisecond)

	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	// Local entry has aged out, the shared cache serves the second call.
	if _, err := f.resolver.Resolve(context.Background(), "role-ctv"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.cache.hits != 1 {
		t.Fatalf("shared cache hits = %d, want 1", f.cache.hits)
	}
}
