package ports

import (
	"context"
	"time"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

// Page is a 1-based page request. Size is capped by the services.
type Page struct {
	Page int
	Size int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Size
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Search   string // partial match on email, first or last name
	IsActive *bool
	Page
}

// RoleFilter narrows a role listing.
type RoleFilter struct {
	Search   string // partial match on name or description
	IsActive *bool
	Page
}

// PermissionFilter narrows a permission listing.
type PermissionFilter struct {
	Search   string // partial match on name, resource or action
	Resource string
	Action   string
	IsActive *bool
	Page
}

// UserRepository persists users and their role memberships. Every read
// returns the user with roles and role permissions loaded.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)

	AddRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// RoleRepository persists roles and their permission sets.
type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// FindDefault returns the role flagged default, or ErrRoleNotFound.
	FindDefault(ctx context.Context) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	List(ctx context.Context, filter RoleFilter) ([]*domain.Role, int64, error)
	// SetDefault clears the default flag on every role and sets it on id,
	// in a single transaction.
	SetDefault(ctx context.Context, id int64) error
	// ClearDefault removes the default flag from id. Update never touches it.
	ClearDefault(ctx context.Context, id int64) error

	AddPermission(ctx context.Context, roleID, permissionID int64) error
	RemovePermission(ctx context.Context, roleID, permissionID int64) error
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// PermissionRepository persists permissions.
type PermissionRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Permission, error)
	FindByName(ctx context.Context, name string) (*domain.Permission, error)
	FindByResourceAction(ctx context.Context, resource, action string) (*domain.Permission, error)
	Create(ctx context.Context, perm *domain.Permission) error
	Update(ctx context.Context, perm *domain.Permission) error
	List(ctx context.Context, filter PermissionFilter) ([]*domain.Permission, int64, error)
	Resources(ctx context.Context) ([]string, error)
	Actions(ctx context.Context) ([]string, error)
}

// LoginLimiter throttles repeated failed logins for the same key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Notifier hands user-facing emails to the background queue.
type Notifier interface {
	Welcome(ctx context.Context, user *domain.User) error
	PasswordChanged(ctx context.Context, user *domain.User) error
}
