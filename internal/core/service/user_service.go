package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

// UserService implements administrative user CRUD. Reads go through the
// repository's soft-delete filter; Delete only ever flags.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput, actor domain.ActorRef) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.RoleID == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         input.Name,
		Phone:        input.Phone,
		PasswordHash: hash,
		RoleID:       input.RoleID,
		AuditStamps: domain.AuditStamps{
			CreatedAt: now,
			CreatedBy: actor,
			UpdatedAt: now,
		},
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Str("actor_id", actor.ID).Msg("user created")
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult[*domain.User], error) {
	normalizeFilter(&filter)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(users, total, filter), nil
}

func (s *UserService) Update(ctx context.Context, id string, input ports.UpdateUserInput, actor domain.ActorRef) error {
	return s.repo.Update(ctx, id, input, actor)
}

// Delete soft-deletes the user, recording the deleting actor. The seeded
// admin account is protected from deletion.
func (s *UserService) Delete(ctx context.Context, id string, actor domain.ActorRef) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Email == AdminEmail {
		return domain.ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id, actor); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user soft-deleted")
	return nil
}

func (s *UserService) Restore(ctx context.Context, id string) error {
	return s.repo.Restore(ctx, id)
}

// AdminEmail is the seeded administrator account; it can never be deleted.
const AdminEmail = "admin@t2m.vn"

func normalizeFilter(f *ports.ListFilter) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

func paginate[T any](items []T, total int64, f ports.ListFilter) *ports.ListResult[T] {
	pages := int(total) / f.Limit
	if int(total)%f.Limit != 0 {
		pages++
	}
	return &ports.ListResult[T]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: pages,
	}
}
