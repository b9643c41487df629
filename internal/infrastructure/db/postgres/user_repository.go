package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

const preloadRolePermissions = "Roles.Permissions"

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Preload(preloadRolePermissions).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Preload(preloadRolePermissions).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	m := toUserModel(user)
	if err := r.db.WithContext(ctx).Omit("Roles").Create(m).Error; err != nil {
		if _, dup := violatedUnique(err); dup {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, user.CreatedAt, user.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

// Update writes the profile and account flags. Email, password and last
// login have dedicated paths.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	m := toUserModel(user)
	res := r.db.WithContext(ctx).Model(m).
		Select("first_name", "last_name", "phone", "avatar_url", "bio", "is_active", "is_superuser", "is_verified", "updated_at").
		Updates(m)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// TouchLastLogin sets last_login without bumping updated_at.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, int64, error) {
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&userModel{})
		if filter.Search != "" {
			like := likePattern(filter.Search)
			tx = tx.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", like, like, like)
		}
		if filter.IsActive != nil {
			tx = tx.Where("is_active = ?", *filter.IsActive)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var rows []userModel
	err := r.db.WithContext(ctx).Scopes(scope).
		Preload(preloadRolePermissions).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, total, nil
}

func (r *UserRepository) AddRole(ctx context.Context, userID, roleID int64) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING", userID, roleID).Error
	if err != nil {
		return fmt.Errorf("add user role: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM user_roles WHERE user_id = ? AND role_id = ?", userID, roleID).Error
	if err != nil {
		return fmt.Errorf("remove user role: %w", err)
	}
	return nil
}

func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if err := tx.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, roleID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace user roles: %w", err)
	}
	return nil
}
