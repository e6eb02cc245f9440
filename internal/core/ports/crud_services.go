package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// CreateUserInput carries admin-created user data. Unlike Register, the
// actor picks the role.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	RoleID   string
}

// ListResult is the generic paginated response shape.
type ListResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput, actor domain.ActorRef) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) (*ListResult[*domain.User], error)
	Update(ctx context.Context, id string, input UpdateUserInput, actor domain.ActorRef) error
	Delete(ctx context.Context, id string, actor domain.ActorRef) error
	Restore(ctx context.Context, id string) error
}

type CreateRoleInput struct {
	Name          string
	Description   string
	IsActive      bool
	PermissionIDs []string
}

type RoleService interface {
	Create(ctx context.Context, input CreateRoleInput, actor domain.ActorRef) (*domain.Role, error)
	Get(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context, filter ListFilter) (*ListResult[*domain.Role], error)
	Update(ctx context.Context, id string, input UpdateRoleInput, actor domain.ActorRef) error
	Delete(ctx context.Context, id string, actor domain.ActorRef) error
}

type CreatePermissionInput struct {
	Name   string
	Method string
	Path   string
	Module string
}

type PermissionService interface {
	Create(ctx context.Context, input CreatePermissionInput, actor domain.ActorRef) (*domain.Permission, error)
	Get(ctx context.Context, id string) (*domain.Permission, error)
	List(ctx context.Context, filter ListFilter) (*ListResult[*domain.Permission], error)
	Update(ctx context.Context, id string, input UpdatePermissionInput, actor domain.ActorRef) error
	Delete(ctx context.Context, id string, actor domain.ActorRef) error
}

type CreateProductInput struct {
	Name           string
	Price          float64
	MonthsDuration int
	IsActive       bool
}

type ProductService interface {
	Create(ctx context.Context, input CreateProductInput, actor domain.ActorRef) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) (*ListResult[*domain.Product], error)
	Update(ctx context.Context, id string, input UpdateProductInput, actor domain.ActorRef) error
	Delete(ctx context.Context, id string, actor domain.ActorRef) error
}
