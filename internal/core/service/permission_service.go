package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

// DefaultPermissions is the built-in permission catalogue.
var DefaultPermissions = []ports.PermissionInput{
	{Name: "users:read", Description: "View users", Resource: "users", Action: "read", IsActive: true},
	{Name: "users:write", Description: "Create and edit users", Resource: "users", Action: "write", IsActive: true},
	{Name: "users:delete", Description: "Deactivate users", Resource: "users", Action: "delete", IsActive: true},

	{Name: "roles:read", Description: "View roles", Resource: "roles", Action: "read", IsActive: true},
	{Name: "roles:write", Description: "Create and edit roles", Resource: "roles", Action: "write", IsActive: true},
	{Name: "roles:delete", Description: "Deactivate roles", Resource: "roles", Action: "delete", IsActive: true},

	{Name: "permissions:read", Description: "View permissions", Resource: "permissions", Action: "read", IsActive: true},
	{Name: "permissions:write", Description: "Create and edit permissions", Resource: "permissions", Action: "write", IsActive: true},
	{Name: "permissions:delete", Description: "Deactivate permissions", Resource: "permissions", Action: "delete", IsActive: true},

	{Name: "admin:access", Description: "Access the admin panel", Resource: "admin", Action: "access", IsActive: true},
	{Name: "admin:settings", Description: "Manage system settings", Resource: "admin", Action: "settings", IsActive: true},
}

type permissionService struct {
	perms ports.PermissionRepository
	log   zerolog.Logger
}

// NewPermissionService returns a PermissionService implementation.
func NewPermissionService(perms ports.PermissionRepository, log zerolog.Logger) ports.PermissionService {
	return &permissionService{perms: perms, log: log}
}

func (s *permissionService) Get(ctx context.Context, id int64) (*domain.Permission, error) {
	return s.perms.FindByID(ctx, id)
}

func (s *permissionService) List(ctx context.Context, filter ports.PermissionFilter) (*ports.ListResult[*domain.Permission], error) {
	filter.Page = normalizePage(filter.Page)
	items, total, err := s.perms.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return newListResult(items, total, filter.Page), nil
}

// Create checks both uniqueness constraints before writing.
func (s *permissionService) Create(ctx context.Context, in ports.PermissionInput) (*domain.Permission, error) {
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return nil, err
	}
	if err := s.ensurePairFree(ctx, in.Resource, in.Action, 0); err != nil {
		return nil, err
	}

	perm := &domain.Permission{
		Name:        in.Name,
		Description: in.Description,
		Resource:    in.Resource,
		Action:      in.Action,
		IsActive:    in.IsActive,
	}
	if err := s.perms.Create(ctx, perm); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	s.log.Info().Int64("permission_id", perm.ID).Str("key", perm.Key()).Msg("permission created")
	return perm, nil
}

func (s *permissionService) Update(ctx context.Context, id int64, in ports.PermissionUpdate) (*domain.Permission, error) {
	perm, err := s.perms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != perm.Name {
		if err := s.ensureNameFree(ctx, *in.Name, perm.ID); err != nil {
			return nil, err
		}
		perm.Name = *in.Name
	}

	resource, action := perm.Resource, perm.Action
	setIf(&resource, in.Resource)
	setIf(&action, in.Action)
	if resource != perm.Resource || action != perm.Action {
		if err := s.ensurePairFree(ctx, resource, action, perm.ID); err != nil {
			return nil, err
		}
		perm.Resource, perm.Action = resource, action
	}

	setIf(&perm.Description, in.Description)
	setIf(&perm.IsActive, in.IsActive)

	if err := s.perms.Update(ctx, perm); err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}
	return perm, nil
}

// Delete deactivates the permission; it stops granting access immediately.
func (s *permissionService) Delete(ctx context.Context, id int64) error {
	perm, err := s.perms.FindByID(ctx, id)
	if err != nil {
		return err
	}
	perm.IsActive = false
	if err := s.perms.Update(ctx, perm); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	s.log.Info().Int64("permission_id", id).Msg("permission deactivated")
	return nil
}

func (s *permissionService) ToggleStatus(ctx context.Context, id int64) (*domain.Permission, error) {
	perm, err := s.perms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	perm.IsActive = !perm.IsActive
	if err := s.perms.Update(ctx, perm); err != nil {
		return nil, fmt.Errorf("toggle permission status: %w", err)
	}
	return perm, nil
}

func (s *permissionService) Resources(ctx context.Context) ([]string, error) {
	return s.perms.Resources(ctx)
}

func (s *permissionService) Actions(ctx context.Context) ([]string, error) {
	return s.perms.Actions(ctx)
}

func (s *permissionService) CreateDefaults(ctx context.Context) ([]*domain.Permission, error) {
	created := make([]*domain.Permission, 0, len(DefaultPermissions))
	for _, in := range DefaultPermissions {
		if _, err := s.perms.FindByResourceAction(ctx, in.Resource, in.Action); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrPermissionNotFound) {
			return created, fmt.Errorf("create default permissions: %w", err)
		}

		perm, err := s.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("create default permissions: %s: %w", in.Name, err)
		}
		created = append(created, perm)
	}
	return created, nil
}

func (s *permissionService) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.perms.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return domain.ErrDuplicateName
	case err != nil && !errors.Is(err, domain.ErrPermissionNotFound):
		return fmt.Errorf("check permission name: %w", err)
	}
	return nil
}

func (s *permissionService) ensurePairFree(ctx context.Context, resource, action string, selfID int64) error {
	existing, err := s.perms.FindByResourceAction(ctx, resource, action)
	switch {
	case err == nil && existing.ID != selfID:
		return domain.ErrDuplicateResourceAction
	case err != nil && !errors.Is(err, domain.ErrPermissionNotFound):
		return fmt.Errorf("check permission pair: %w", err)
	}
	return nil
}
