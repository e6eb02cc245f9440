package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// UpdateRoleInput holds the mutable role fields. Nil pointers are left
// untouched. PermissionIDs, when set, replaces the whole reference list.
type UpdateRoleInput struct {
	Name          *string
	Description   *string
	IsActive      *bool
	PermissionIDs *[]string
}

type RoleRepository interface {
	Create(ctx context.Context, r *domain.Role) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Role, int64, error)
	Update(ctx context.Context, id string, input UpdateRoleInput, actor domain.ActorRef) error
	SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error
}

// UpdatePermissionInput holds the mutable permission fields.
type UpdatePermissionInput struct {
	Name   *string
	Method *string
	Path   *string
	Module *string
}

type PermissionRepository interface {
	Create(ctx context.Context, p *domain.Permission) (*domain.Permission, error)
	FindByID(ctx context.Context, id string) (*domain.Permission, error)
	// FindByIDs returns the non-deleted permissions among ids; missing and
	// soft-deleted references are silently dropped, not errors.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Permission, error)
	FindByMethodAndPath(ctx context.Context, method, path string) (*domain.Permission, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Permission, int64, error)
	Update(ctx context.Context, id string, input UpdatePermissionInput, actor domain.ActorRef) error
	SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error
}
