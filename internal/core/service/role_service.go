package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type roleService struct {
	roles ports.RoleRepository
	perms ports.PermissionRepository
	log   zerolog.Logger
}

// NewRoleService returns a RoleService implementation.
func NewRoleService(roles ports.RoleRepository, perms ports.PermissionRepository, log zerolog.Logger) ports.RoleService {
	return &roleService{roles: roles, perms: perms, log: log}
}

func (s *roleService) Get(ctx context.Context, id int64) (*domain.Role, error) {
	return s.roles.FindByID(ctx, id)
}

func (s *roleService) List(ctx context.Context, filter ports.RoleFilter) (*ports.ListResult[*domain.Role], error) {
	filter.Page = normalizePage(filter.Page)
	items, total, err := s.roles.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return newListResult(items, total, filter.Page), nil
}

// Create inserts a role. The default flag is never written directly; a role
// created as default goes through SetDefault so the flag stays unique.
func (s *roleService) Create(ctx context.Context, in ports.RoleInput) (*domain.Role, error) {
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	role := &domain.Role{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    in.IsActive,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	if in.IsDefault {
		if err := s.roles.SetDefault(ctx, role.ID); err != nil {
			return nil, fmt.Errorf("create role: set default: %w", err)
		}
		role.IsDefault = true
	}

	s.log.Info().Int64("role_id", role.ID).Str("name", role.Name).Msg("role created")
	return role, nil
}

func (s *roleService) Update(ctx context.Context, id int64, in ports.RoleUpdate) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != role.Name {
		if err := s.ensureNameFree(ctx, *in.Name, role.ID); err != nil {
			return nil, err
		}
		role.Name = *in.Name
	}
	setIf(&role.Description, in.Description)
	setIf(&role.IsActive, in.IsActive)

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	switch {
	case in.IsDefault == nil:
	case *in.IsDefault:
		if err := s.roles.SetDefault(ctx, role.ID); err != nil {
			return nil, fmt.Errorf("update role: set default: %w", err)
		}
		role.IsDefault = true
	default:
		if err := s.roles.ClearDefault(ctx, role.ID); err != nil {
			return nil, fmt.Errorf("update role: clear default: %w", err)
		}
		role.IsDefault = false
	}
	return role, nil
}

// Delete deactivates the role. Its assignments are kept but contribute
// nothing while it is inactive.
func (s *roleService) Delete(ctx context.Context, id int64) error {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	role.IsActive = false
	if err := s.roles.Update(ctx, role); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	s.log.Info().Int64("role_id", id).Msg("role deactivated")
	return nil
}

func (s *roleService) ToggleStatus(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role.IsActive = !role.IsActive
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("toggle role status: %w", err)
	}
	return role, nil
}

// SetPermissions replaces the role's permission set. Every permission must exist.
func (s *roleService) SetPermissions(ctx context.Context, id int64, permissionIDs []int64) (*domain.Role, error) {
	if _, err := s.roles.FindByID(ctx, id); err != nil {
		return nil, err
	}

	ids := uniqueIDs(permissionIDs)
	for _, pid := range ids {
		if _, err := s.perms.FindByID(ctx, pid); err != nil {
			return nil, fmt.Errorf("set permissions: permission %d: %w", pid, err)
		}
	}

	if err := s.roles.ReplacePermissions(ctx, id, ids); err != nil {
		return nil, fmt.Errorf("set permissions: %w", err)
	}
	s.log.Info().Int64("role_id", id).Ints64("permission_ids", ids).Msg("role permissions replaced")
	return s.roles.FindByID(ctx, id)
}

func (s *roleService) AddPermission(ctx context.Context, id, permissionID int64) error {
	if err := s.ensureRoleAndPermission(ctx, id, permissionID); err != nil {
		return err
	}
	if err := s.roles.AddPermission(ctx, id, permissionID); err != nil {
		return fmt.Errorf("add permission: %w", err)
	}
	return nil
}

// RemovePermission detaches a permission. The change applies to the next
// authorization check of every holder, whatever their tokens say.
func (s *roleService) RemovePermission(ctx context.Context, id, permissionID int64) error {
	if err := s.ensureRoleAndPermission(ctx, id, permissionID); err != nil {
		return err
	}
	if err := s.roles.RemovePermission(ctx, id, permissionID); err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	return nil
}

// SetDefault makes id the single default role. Repeating the call is a no-op.
func (s *roleService) SetDefault(ctx context.Context, id int64) (*domain.Role, error) {
	if _, err := s.roles.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.roles.SetDefault(ctx, id); err != nil {
		return nil, fmt.Errorf("set default role: %w", err)
	}
	s.log.Info().Int64("role_id", id).Msg("default role set")
	return s.roles.FindByID(ctx, id)
}

func (s *roleService) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.roles.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return domain.ErrDuplicateName
	case err != nil && !errors.Is(err, domain.ErrRoleNotFound):
		return fmt.Errorf("check role name: %w", err)
	}
	return nil
}

func (s *roleService) ensureRoleAndPermission(ctx context.Context, roleID, permissionID int64) error {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.perms.FindByID(ctx, permissionID); err != nil {
		return err
	}
	return nil
}
