package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// RoleResolver turns a role id into its effective permission set. Results
// are cached with a bounded staleness window; Invalidate must be called on
// every role or permission mutation.
type RoleResolver interface {
	// Resolve returns the de-duplicated, live permission set for roleID.
	// Inactive and soft-deleted roles resolve to an empty set, not an error.
	Resolve(ctx context.Context, roleID string) ([]domain.Permission, error)

	// Invalidate drops cached entries for roleID; an empty id flushes all.
	Invalidate(ctx context.Context, roleID string)
}

// PermissionCache is the shared second-level cache behind the resolver's
// in-process map (Redis in production).
type PermissionCache interface {
	Get(ctx context.Context, roleID string) ([]domain.Permission, bool, error)
	Set(ctx context.Context, roleID string, perms []domain.Permission) error
	Delete(ctx context.Context, roleID string) error
	// Flush drops every cached role.
	Flush(ctx context.Context) error
}
