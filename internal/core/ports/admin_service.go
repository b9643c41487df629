package ports

import (
	"context"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
	Pages int
}

// UserUpdate carries optional user fields. Nil means unchanged.
type UserUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	AvatarURL   *string
	Bio         *string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// ProfileOnly drops the account flags, leaving the self-editable fields.
func (u UserUpdate) ProfileOnly() UserUpdate {
	u.IsActive, u.IsSuperuser, u.IsVerified = nil, nil, nil
	return u
}

// RoleInput carries role fields for create.
type RoleInput struct {
	Name        string
	Description string
	IsActive    bool
	IsDefault   bool
}

// RoleUpdate carries optional role fields.
type RoleUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	IsDefault   *bool
}

// PermissionInput carries permission fields for create.
type PermissionInput struct {
	Name        string
	Description string
	Resource    string
	Action      string
	IsActive    bool
}

// PermissionUpdate carries optional permission fields.
type PermissionUpdate struct {
	Name        *string
	Description *string
	Resource    *string
	Action      *string
	IsActive    *bool
}

// UserService administers users and their role memberships.
type UserService interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) (*ListResult[*domain.User], error)
	Update(ctx context.Context, id int64, in UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	ToggleStatus(ctx context.Context, id int64) (*domain.User, error)
	AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*domain.User, error)
	RemoveRole(ctx context.Context, id, roleID int64) error
}

// RoleService administers roles, their permissions and the default role.
type RoleService interface {
	Get(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context, filter RoleFilter) (*ListResult[*domain.Role], error)
	Create(ctx context.Context, in RoleInput) (*domain.Role, error)
	Update(ctx context.Context, id int64, in RoleUpdate) (*domain.Role, error)
	Delete(ctx context.Context, id int64) error
	ToggleStatus(ctx context.Context, id int64) (*domain.Role, error)
	SetPermissions(ctx context.Context, id int64, permissionIDs []int64) (*domain.Role, error)
	AddPermission(ctx context.Context, id, permissionID int64) error
	RemovePermission(ctx context.Context, id, permissionID int64) error
	SetDefault(ctx context.Context, id int64) (*domain.Role, error)
}

// PermissionService administers permissions.
type PermissionService interface {
	Get(ctx context.Context, id int64) (*domain.Permission, error)
	List(ctx context.Context, filter PermissionFilter) (*ListResult[*domain.Permission], error)
	Create(ctx context.Context, in PermissionInput) (*domain.Permission, error)
	Update(ctx context.Context, id int64, in PermissionUpdate) (*domain.Permission, error)
	Delete(ctx context.Context, id int64) error
	ToggleStatus(ctx context.Context, id int64) (*domain.Permission, error)
	Resources(ctx context.Context) ([]string, error)
	Actions(ctx context.Context) ([]string, error)
	// CreateDefaults inserts the built-in permission catalogue, skipping
	// entries that already exist, and returns the ones it created.
	CreateDefaults(ctx context.Context) ([]*domain.Permission, error)
}
