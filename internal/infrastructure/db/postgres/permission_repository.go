package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Permission, error) {
	var m permissionModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	return m.toDomain(), nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id int64) (*domain.Permission, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PermissionRepository) FindByName(ctx context.Context, name string) (*domain.Permission, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *PermissionRepository) FindByResourceAction(ctx context.Context, resource, action string) (*domain.Permission, error) {
	return r.findOne(ctx, "resource = ? AND action = ?", resource, action)
}

func (r *PermissionRepository) Create(ctx context.Context, perm *domain.Permission) error {
	m := toPermissionModel(perm)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if conflict := permissionConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("insert permission: %w", err)
	}
	perm.ID, perm.CreatedAt, perm.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *PermissionRepository) Update(ctx context.Context, perm *domain.Permission) error {
	m := toPermissionModel(perm)
	res := r.db.WithContext(ctx).Model(m).
		Select("name", "description", "resource", "action", "is_active", "updated_at").
		Updates(m)
	if res.Error != nil {
		if conflict := permissionConflict(res.Error); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update permission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPermissionNotFound
	}
	perm.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *PermissionRepository) List(ctx context.Context, filter ports.PermissionFilter) ([]*domain.Permission, int64, error) {
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&permissionModel{})
		if filter.Search != "" {
			like := likePattern(filter.Search)
			tx = tx.Where("name ILIKE ? OR resource ILIKE ? OR action ILIKE ?", like, like, like)
		}
		if filter.Resource != "" {
			tx = tx.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			tx = tx.Where("action = ?", filter.Action)
		}
		if filter.IsActive != nil {
			tx = tx.Where("is_active = ?", *filter.IsActive)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}

	var rows []permissionModel
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("resource, action").
		Offset(filter.Offset()).
		Limit(filter.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}

	out := make([]*domain.Permission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, total, nil
}

func (r *PermissionRepository) Resources(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "resource")
}

func (r *PermissionRepository) Actions(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "action")
}

func (r *PermissionRepository) distinct(ctx context.Context, column string) ([]string, error) {
	out := []string{}
	err := r.db.WithContext(ctx).Model(&permissionModel{}).
		Distinct(column).
		Order(column).
		Pluck(column, &out).Error
	if err != nil {
		return nil, fmt.Errorf("distinct permission %s: %w", column, err)
	}
	return out, nil
}
