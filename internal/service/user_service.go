package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// UserService serves the self-scoped account views.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}
}

// List returns the accounts actor may see, which is only their own.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return []domain.User{*user}, nil
}

// Get returns the account with id when it is actor's own.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if id != actor.ID {
		return nil, apperrors.NewNotFound("User")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateName changes the display name of actor's own account. A nil name is
// allowed for PATCH and rejected for PUT.
func (s *UserService) UpdateName(ctx context.Context, actor *domain.User, id int64, name *string, full bool) (*domain.User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if name == nil {
		if full {
			return nil, apperrors.NewFieldError("name", msgFieldRequired)
		}
		return user, nil
	}
	trimmed := strings.TrimSpace(*name)
	if utf8.RuneCountInString(trimmed) < nameMinLength {
		return nil, apperrors.NewFieldError("name", msgNameTooShort)
	}
	user.Name = trimmed
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", user.ID), zap.Strings("fields", []string{"name"}))
	return user, nil
}
