package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// PermissionService implements permission CRUD. A permission mutation may
// affect any role referencing it, so the whole resolver cache is flushed.
type PermissionService struct {
	repo     ports.PermissionRepository
	resolver ports.RoleResolver
	log      zerolog.Logger
}

func NewPermissionService(repo ports.PermissionRepository, resolver ports.RoleResolver, log zerolog.Logger) *PermissionService {
	return &PermissionService{repo: repo, resolver: resolver, log: log}
}

func (s *PermissionService) Create(ctx context.Context, input ports.CreatePermissionInput, actor domain.ActorRef) (*domain.Permission, error) {
	if _, err := s.repo.FindByMethodAndPath(ctx, input.Method, input.Path); err == nil {
		return nil, domain.ErrDuplicatePermission
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	perm := &domain.Permission{
		Name:   input.Name,
		Method: input.Method,
		Path:   input.Path,
		Module: input.Module,
		AuditStamps: domain.AuditStamps{
			CreatedAt: now,
			CreatedBy: actor,
			UpdatedAt: now,
		},
	}

	created, err := s.repo.Create(ctx, perm)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("permission_id", created.ID).Str("method", created.Method).Str("path", created.Path).Msg("permission created")
	return created, nil
}

func (s *PermissionService) Get(ctx context.Context, id string) (*domain.Permission, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PermissionService) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult[*domain.Permission], error) {
	normalizeFilter(&filter)
	perms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(perms, total, filter), nil
}

func (s *PermissionService) Update(ctx context.Context, id string, input ports.UpdatePermissionInput, actor domain.ActorRef) error {
	if err := s.repo.Update(ctx, id, input, actor); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, "")
	return nil
}

func (s *PermissionService) Delete(ctx context.Context, id string, actor domain.ActorRef) error {
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, "")
	s.log.Info().Str("permission_id", id).Str("actor_id", actor.ID).Msg("permission soft-deleted")
	return nil
}
