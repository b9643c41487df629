package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type userService struct {
	users ports.UserRepository
	roles ports.RoleRepository
	log   zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(users ports.UserRepository, roles ports.RoleRepository, log zerolog.Logger) ports.UserService {
	return &userService{users: users, roles: roles, log: log}
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) List(ctx context.Context, filter ports.UserFilter) (*ports.ListResult[*domain.User], error) {
	filter.Page = normalizePage(filter.Page)
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newListResult(items, total, filter.Page), nil
}

func (s *userService) Update(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setIf(&user.FirstName, in.FirstName)
	setIf(&user.LastName, in.LastName)
	setIf(&user.Phone, in.Phone)
	setIf(&user.AvatarURL, in.AvatarURL)
	setIf(&user.Bio, in.Bio)
	setIf(&user.IsActive, in.IsActive)
	setIf(&user.IsSuperuser, in.IsSuperuser)
	setIf(&user.IsVerified, in.IsVerified)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete deactivates the user. Rows are never removed.
func (s *userService) Delete(ctx context.Context, id int64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deactivated")
	return nil
}

func (s *userService) ToggleStatus(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("toggle user status: %w", err)
	}
	return user, nil
}

// AssignRoles replaces the user's role set. Every role must exist.
func (s *userService) AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*domain.User, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return nil, err
	}

	ids := uniqueIDs(roleIDs)
	for _, roleID := range ids {
		if _, err := s.roles.FindByID(ctx, roleID); err != nil {
			return nil, fmt.Errorf("assign roles: role %d: %w", roleID, err)
		}
	}

	if err := s.users.ReplaceRoles(ctx, id, ids); err != nil {
		return nil, fmt.Errorf("assign roles: %w", err)
	}
	s.log.Info().Int64("user_id", id).Ints64("role_ids", ids).Msg("user roles replaced")
	return s.users.FindByID(ctx, id)
}

func (s *userService) RemoveRole(ctx context.Context, id, roleID int64) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return err
	}
	if err := s.users.RemoveRole(ctx, id, roleID); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
