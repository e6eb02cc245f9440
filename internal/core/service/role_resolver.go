package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// RoleResolver resolves a role id into its effective permission set through
// a two-level cache: an in-process TTL map in front of a shared cache
// (Redis), in front of storage. Permission changes become visible within one
// cache TTL on other nodes and immediately on the node that mutated, because
// mutation paths call Invalidate.
type RoleResolver struct {
	roles  ports.RoleRepository
	perms  ports.PermissionRepository
	shared ports.PermissionCache // optional, may be nil
	ttl    time.Duration
	log    zerolog.Logger

	mu    sync.RWMutex
	local map[string]cachedPerms
}

type cachedPerms struct {
	perms     []domain.Permission
	expiresAt time.Time
}

func NewRoleResolver(
	roles ports.RoleRepository,
	perms ports.PermissionRepository,
	shared ports.PermissionCache,
	ttl time.Duration,
	log zerolog.Logger,
) *RoleResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RoleResolver{
		roles:  roles,
		perms:  perms,
		shared: shared,
		ttl:    ttl,
		log:    log,
		local:  make(map[string]cachedPerms),
	}
}

// Resolve returns the live, de-duplicated permission set for roleID. An
// inactive or soft-deleted role resolves to an empty set: the user stays
// authenticated but is authorized for nothing.
func (r *RoleResolver) Resolve(ctx context.Context, roleID string) ([]domain.Permission, error) {
	if perms, ok := r.fromLocal(roleID); ok {
		return perms, nil
	}

	if r.shared != nil {
		perms, ok, err := r.shared.Get(ctx, roleID)
		if err != nil {
			r.log.Warn().Err(err).Str("role_id", roleID).Msg("shared permission cache read failed")
		} else if ok {
			r.storeLocal(roleID, perms)
			return perms, nil
		}
	}

	perms, err := r.resolveFromStorage(ctx, roleID)
	if err != nil {
		return nil, err
	}

	r.storeLocal(roleID, perms)
	if r.shared != nil {
		if err := r.shared.Set(ctx, roleID, perms); err != nil {
			r.log.Warn().Err(err).Str("role_id", roleID).Msg("shared permission cache write failed")
		}
	}
	return perms, nil
}

// Invalidate drops cached entries for roleID on this node and in the shared
// cache. An empty roleID flushes everything — used when a permission
// document changes, since any role may reference it.
func (r *RoleResolver) Invalidate(ctx context.Context, roleID string) {
	r.mu.Lock()
	if roleID == "" {
		r.local = make(map[string]cachedPerms)
	} else {
		delete(r.local, roleID)
	}
	r.mu.Unlock()

	if r.shared == nil {
		return
	}
	var err error
	if roleID == "" {
		err = r.shared.Flush(ctx)
	} else {
		err = r.shared.Delete(ctx, roleID)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("role_id", roleID).Msg("shared permission cache invalidation failed")
	}
}

func (r *RoleResolver) resolveFromStorage(ctx context.Context, roleID string) ([]domain.Permission, error) {
	role, err := r.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Permission{}, nil
		}
		return nil, err
	}
	if !role.IsActive || len(role.PermissionIDs) == 0 {
		return []domain.Permission{}, nil
	}

	// FindByIDs drops soft-deleted references; dedupe guards against roles
	// written before the uniqueness rule was enforced.
	perms, err := r.perms.FindByIDs(ctx, domain.DedupePermissionIDs(role.PermissionIDs))
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *RoleResolver) fromLocal(roleID string) ([]domain.Permission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.local[roleID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.perms, true
}

func (r *RoleResolver) storeLocal(roleID string, perms []domain.Permission) {
	r.mu.Lock()
	r.local[roleID] = cachedPerms{perms: perms, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
}
