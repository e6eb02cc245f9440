package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// RoleService implements role CRUD. Every mutation invalidates the
// resolver's cached permission set for the touched role, so a change is
// visible immediately on this node and within one cache TTL elsewhere.
type RoleService struct {
	repo     ports.RoleRepository
	resolver ports.RoleResolver
	log      zerolog.Logger
}

func NewRoleService(repo ports.RoleRepository, resolver ports.RoleResolver, log zerolog.Logger) *RoleService {
	return &RoleService{repo: repo, resolver: resolver, log: log}
}

func (s *RoleService) Create(ctx context.Context, input ports.CreateRoleInput, actor domain.ActorRef) (*domain.Role, error) {
	if _, err := s.repo.FindByName(ctx, input.Name); err == nil {
		return nil, domain.ErrRoleExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	role := &domain.Role{
		Name:          input.Name,
		Description:   input.Description,
		IsActive:      input.IsActive,
		PermissionIDs: domain.DedupePermissionIDs(input.PermissionIDs),
		AuditStamps: domain.AuditStamps{
			CreatedAt: now,
			CreatedBy: actor,
			UpdatedAt: now,
		},
	}

	created, err := s.repo.Create(ctx, role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("role_id", created.ID).Str("name", created.Name).Msg("role created")
	return created, nil
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *RoleService) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult[*domain.Role], error) {
	normalizeFilter(&filter)
	roles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(roles, total, filter), nil
}

func (s *RoleService) Update(ctx context.Context, id string, input ports.UpdateRoleInput, actor domain.ActorRef) error {
	if input.PermissionIDs != nil {
		deduped := domain.DedupePermissionIDs(*input.PermissionIDs)
		input.PermissionIDs = &deduped
	}
	if err := s.repo.Update(ctx, id, input, actor); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, id)
	return nil
}

func (s *RoleService) Delete(ctx context.Context, id string, actor domain.ActorRef) error {
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, id)
	s.log.Info().Str("role_id", id).Str("actor_id", actor.ID).Msg("role soft-deleted")
	return nil
}
