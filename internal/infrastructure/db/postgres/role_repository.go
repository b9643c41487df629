package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

// defaultRoleLockKey serializes every write of roles.is_default through a
// transaction-scoped advisory lock.
const defaultRoleLockKey int64 = 0x52424143

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Role, error) {
	var m roleModel
	err := r.db.WithContext(ctx).Preload("Permissions").Where(query, args...).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return m.toDomain(), nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *RoleRepository) FindDefault(ctx context.Context) (*domain.Role, error) {
	return r.findOne(ctx, "is_default = ?", true)
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	m := toRoleModel(role)
	if err := r.db.WithContext(ctx).Omit("Permissions").Create(m).Error; err != nil {
		if _, dup := violatedUnique(err); dup {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert role: %w", err)
	}
	role.ID, role.CreatedAt, role.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

// Update writes the editable columns. is_default is left alone; it only
// changes through SetDefault and ClearDefault.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	m := toRoleModel(role)
	res := r.db.WithContext(ctx).Model(m).
		Select("name", "description", "is_active", "updated_at").
		Updates(m)
	if res.Error != nil {
		if _, dup := violatedUnique(res.Error); dup {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	role.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *RoleRepository) List(ctx context.Context, filter ports.RoleFilter) ([]*domain.Role, int64, error) {
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&roleModel{})
		if filter.Search != "" {
			like := likePattern(filter.Search)
			tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
		}
		if filter.IsActive != nil {
			tx = tx.Where("is_active = ?", *filter.IsActive)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	var rows []roleModel
	err := r.db.WithContext(ctx).Scopes(scope).
		Preload("Permissions").
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}

	out := make([]*domain.Role, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, total, nil
}

// SetDefault clears every default flag and sets the one on id inside one
// transaction. The partial unique index on roles(is_default) backs it up.
func (r *RoleRepository) SetDefault(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", defaultRoleLockKey).Error; err != nil {
			return fmt.Errorf("lock default role: %w", err)
		}

		var exists int64
		if err := tx.Model(&roleModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("find role: %w", err)
		}
		if exists == 0 {
			return domain.ErrRoleNotFound
		}

		if err := tx.Model(&roleModel{}).
			Where("is_default = ? AND id <> ?", true, id).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("clear default roles: %w", err)
		}
		if err := tx.Model(&roleModel{}).
			Where("id = ?", id).
			Update("is_default", true).Error; err != nil {
			return fmt.Errorf("set default role: %w", err)
		}
		return nil
	})
}

// ClearDefault drops the default flag from id under the same lock as
// SetDefault, so a concurrent SetDefault on id is never undone.
func (r *RoleRepository) ClearDefault(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", defaultRoleLockKey).Error; err != nil {
			return fmt.Errorf("lock default role: %w", err)
		}

		res := tx.Model(&roleModel{}).Where("id = ?", id).Update("is_default", false)
		if res.Error != nil {
			return fmt.Errorf("clear default role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrRoleNotFound
		}
		return nil
	})
}

func (r *RoleRepository) AddPermission(ctx context.Context, roleID, permissionID int64) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?) ON CONFLICT DO NOTHING", roleID, permissionID).Error
	if err != nil {
		return fmt.Errorf("add role permission: %w", err)
	}
	return nil
}

func (r *RoleRepository) RemovePermission(ctx context.Context, roleID, permissionID int64) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?", roleID, permissionID).Error
	if err != nil {
		return fmt.Errorf("remove role permission: %w", err)
	}
	return nil
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", roleID).Error; err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if err := tx.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)", roleID, pid).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace role permissions: %w", err)
	}
	return nil
}
