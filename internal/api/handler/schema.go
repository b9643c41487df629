package handler

import (
	"time"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenFormRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,max=100,password"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Phone     string `json:"phone"      validate:"max=20"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=100,password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

func toTokenResponse(p *ports.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
		RefreshToken: p.RefreshToken,
	}
}

// --- Users ---

type updateUserRequest struct {
	FirstName   *string `json:"first_name"   validate:"omitempty,max=100"`
	LastName    *string `json:"last_name"    validate:"omitempty,max=100"`
	Phone       *string `json:"phone"        validate:"omitempty,max=20"`
	AvatarURL   *string `json:"avatar_url"   validate:"omitempty,max=500"`
	Bio         *string `json:"bio"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsVerified  *bool   `json:"is_verified"`
}

func (r updateUserRequest) toInput() ports.UserUpdate {
	return ports.UserUpdate{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		AvatarURL:   r.AvatarURL,
		Bio:         r.Bio,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
		IsVerified:  r.IsVerified,
	}
}

type roleIDsRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"required"`
}

type userResponse struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	FullName    string         `json:"full_name"`
	Phone       string         `json:"phone"`
	AvatarURL   string         `json:"avatar_url"`
	Bio         string         `json:"bio"`
	IsActive    bool           `json:"is_active"`
	IsSuperuser bool           `json:"is_superuser"`
	IsVerified  bool           `json:"is_verified"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	LastLogin   *time.Time     `json:"last_login"`
	Roles       []roleResponse `json:"roles"`
}

func toUserResponse(u *domain.User) userResponse {
	roles := make([]roleResponse, 0, len(u.Roles))
	for i := range u.Roles {
		roles = append(roles, toRoleSummary(&u.Roles[i]))
	}
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Phone:       u.Phone,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLogin:   u.LastLogin,
		Roles:       roles,
	}
}

// --- Roles ---

type createRoleRequest struct {
	Name        string `json:"name"        validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
	IsActive    *bool  `json:"is_active"`
	IsDefault   bool   `json:"is_default"`
}

type updateRoleRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
	IsDefault   *bool   `json:"is_default"`
}

type permissionIDsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

type roleResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsActive    bool                 `json:"is_active"`
	IsDefault   bool                 `json:"is_default"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Permissions []permissionResponse `json:"permissions,omitempty"`
}

// toRoleSummary omits the permission list, as nested under a user.
func toRoleSummary(r *domain.Role) roleResponse {
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		IsDefault:   r.IsDefault,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRoleResponse(r *domain.Role) roleResponse {
	out := toRoleSummary(r)
	out.Permissions = make([]permissionResponse, 0, len(r.Permissions))
	for i := range r.Permissions {
		out.Permissions = append(out.Permissions, toPermissionResponse(&r.Permissions[i]))
	}
	return out
}

// --- Permissions ---

type createPermissionRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=200"`
	Resource    string `json:"resource"    validate:"required,max=50"`
	Action      string `json:"action"      validate:"required,max=20"`
	IsActive    *bool  `json:"is_active"`
}

type updatePermissionRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Resource    *string `json:"resource"    validate:"omitempty,min=1,max=50"`
	Action      *string `json:"action"      validate:"omitempty,min=1,max=20"`
	IsActive    *bool   `json:"is_active"`
}

type permissionResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPermissionResponse(p *domain.Permission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Resource:    p.Resource,
		Action:      p.Action,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type resourcesResponse struct {
	Resources []string `json:"resources"`
}

type actionsResponse struct {
	Actions []string `json:"actions"`
}

// --- Pagination ---

type pageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func toPage[S, T any](r *ports.ListResult[S], conv func(S) T) pageResponse[T] {
	items := make([]T, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, conv(it))
	}
	return pageResponse[T]{Items: items, Total: r.Total, Page: r.Page, Size: r.Size, Pages: r.Pages}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

type createdPermissionsResponse struct {
	Created []permissionResponse `json:"created"`
}
