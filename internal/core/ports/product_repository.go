package ports

import (
	"context"

	"github.com/t2m/license-platform/internal/core/domain"
)

// UpdateProductInput holds the mutable product fields.
type UpdateProductInput struct {
	Name           *string
	Price          *float64
	MonthsDuration *int
	IsActive       *bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, int64, error)
	Update(ctx context.Context, id string, input UpdateProductInput, actor domain.ActorRef) error
	SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error
}
