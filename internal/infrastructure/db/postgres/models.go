package postgres

import (
	"time"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

// Defaults for the boolean flags live in the migrations; gorm writes every
// column explicitly so false is never replaced by a database default.

type userModel struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Phone        string
	AvatarURL    string
	Bio          string
	IsActive     bool `gorm:"not null"`
	IsSuperuser  bool `gorm:"not null"`
	IsVerified   bool `gorm:"not null"`
	LastLogin    *time.Time
	Roles        []roleModel `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	IsActive    bool              `gorm:"not null"`
	IsDefault   bool              `gorm:"not null"`
	Permissions []permissionModel `gorm:"many2many:role_permissions;joinForeignKey:RoleID;joinReferences:PermissionID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (roleModel) TableName() string { return "roles" }

type permissionModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	Resource    string `gorm:"not null"`
	Action      string `gorm:"not null"`
	IsActive    bool   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (permissionModel) TableName() string { return "permissions" }

func toUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
		IsVerified:   u.IsVerified,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m *userModel) toDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Phone:        m.Phone,
		AvatarURL:    m.AvatarURL,
		Bio:          m.Bio,
		IsActive:     m.IsActive,
		IsSuperuser:  m.IsSuperuser,
		IsVerified:   m.IsVerified,
		LastLogin:    m.LastLogin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Roles:        make([]domain.Role, 0, len(m.Roles)),
	}
	for i := range m.Roles {
		u.Roles = append(u.Roles, *m.Roles[i].toDomain())
	}
	return u
}

func toRoleModel(r *domain.Role) *roleModel {
	return &roleModel{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		IsDefault:   r.IsDefault,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *roleModel) toDomain() *domain.Role {
	r := &domain.Role{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		IsDefault:   m.IsDefault,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Permissions: make([]domain.Permission, 0, len(m.Permissions)),
	}
	for i := range m.Permissions {
		r.Permissions = append(r.Permissions, *m.Permissions[i].toDomain())
	}
	return r
}

func toPermissionModel(p *domain.Permission) *permissionModel {
	return &permissionModel{
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

func (m *permissionModel) toDomain() *domain.Permission {
	return &domain.Permission{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Resource:    m.Resource,
		Action:      m.Action,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func likePattern(s string) string {
	return "%" + s + "%"
}
