package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// ProductService implements subscription-plan CRUD.
type ProductService struct {
	repo ports.ProductRepository
	log  zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, log zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, log: log}
}

func (s *ProductService) Create(ctx context.Context, input ports.CreateProductInput, actor domain.ActorRef) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{
		Name:           input.Name,
		Price:          input.Price,
		MonthsDuration: input.MonthsDuration,
		IsActive:       input.IsActive,
		AuditStamps: domain.AuditStamps{
			CreatedAt: now,
			CreatedBy: actor,
			UpdatedAt: now,
		},
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", created.ID).Str("name", created.Name).Msg("product created")
	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult[*domain.Product], error) {
	normalizeFilter(&filter)
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(products, total, filter), nil
}

func (s *ProductService) Update(ctx context.Context, id string, input ports.UpdateProductInput, actor domain.ActorRef) error {
	return s.repo.Update(ctx, id, input, actor)
}

func (s *ProductService) Delete(ctx context.Context, id string, actor domain.ActorRef) error {
	return s.repo.SoftDelete(ctx, id, actor)
}
