package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/rbac"
	"github.com/RafhaelH/rbac-api/pkg/metrics"
)

// RequirePermission allows the request when the principal holds
// resource:action through an active role, or is a superuser. It must run
// after Authenticate. The check uses the user loaded for this request, never
// the permission list embedded in the token.
func RequirePermission(resource, action string) echo.MiddlewareFunc {
	key := domain.PermissionKey(resource, action)
	return guard("permission", func(u *domain.User) error {
		if rbac.Authorize(u, resource, action) {
			return nil
		}
		return fmt.Errorf("%w: permission required: %s", domain.ErrForbidden, key)
	})
}

// RequireRole allows the request when the principal has an active role
// named name.
func RequireRole(name string) echo.MiddlewareFunc {
	return guard("role", func(u *domain.User) error {
		if rbac.HasRole(u, name) {
			return nil
		}
		return fmt.Errorf("%w: role required: %s", domain.ErrForbidden, name)
	})
}

// RequireSuperuser allows superusers only.
func RequireSuperuser() echo.MiddlewareFunc {
	return guard("superuser", func(u *domain.User) error {
		if u.IsSuperuser {
			return nil
		}
		return fmt.Errorf("%w: superuser access required", domain.ErrForbidden)
	})
}

// RequireVerified allows principals whose email is verified.
func RequireVerified() echo.MiddlewareFunc {
	return guard("verified", func(u *domain.User) error {
		if u.IsVerified {
			return nil
		}
		return fmt.Errorf("%w: email verification required", domain.ErrForbidden)
	})
}

func guard(kind string, check func(*domain.User) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := Principal(c)
			if !ok {
				return fmt.Errorf("%w: authentication required", domain.ErrUnauthenticated)
			}
			if err := check(user); err != nil {
				metrics.AuthorizationDecisionsTotal.WithLabelValues(kind, "deny").Inc()
				return err
			}
			metrics.AuthorizationDecisionsTotal.WithLabelValues(kind, "allow").Inc()
			return next(c)
		}
	}
}
