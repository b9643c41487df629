package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
)

const (
	// uniqueViolation is the SQLSTATE of a unique index conflict.
	uniqueViolation = "23505"

	permissionNameIndex = "ux_permissions_name"
)

// violatedUnique reports whether err is a unique index conflict and, when
// the driver says so, which index. A translated gorm.ErrDuplicatedKey has
// lost the index name.
func violatedUnique(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == uniqueViolation
	}
	return "", errors.Is(err, gorm.ErrDuplicatedKey)
}

// permissionConflict maps a unique violation on permissions to the domain
// error for the index that fired. It returns nil for any other error.
func permissionConflict(err error) error {
	index, ok := violatedUnique(err)
	switch {
	case !ok:
		return nil
	case index == permissionNameIndex:
		return domain.ErrDuplicateName
	default:
		return domain.ErrDuplicateResourceAction
	}
}
