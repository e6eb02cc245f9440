package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// ListFilter carries common pagination parameters. Page is 1-based.
// IncludeDeleted is honored only on administrative read paths; default
// queries always exclude soft-deleted records.
type ListFilter struct {
	Search         string
	Page           int
	Limit          int
	IncludeDeleted bool
}

// UpdateUserInput holds the mutable user fields. Nil pointers are left
// untouched.
type UpdateUserInput struct {
	Name   *string
	Phone  *string
	RoleID *string
}

// UserRepository persists users. Every read excludes soft-deleted documents
// unless the filter explicitly opts in.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByRefreshToken resolves the owner of a refresh token by session
	// membership. Returns domain.ErrNotFound when no live user holds it.
	FindByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, id string, input UpdateUserInput, actor domain.ActorRef) error
	SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error
	Restore(ctx context.Context, id string) error
}
