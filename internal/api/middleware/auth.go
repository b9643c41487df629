package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated user on the request context.
func SetPrincipal(c echo.Context, u *domain.User) {
	c.Set(principalKey, u)
}

// Principal returns the user stored by Authenticate or OptionalAuth.
func Principal(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(principalKey).(*domain.User)
	return u, ok && u != nil
}

// Authenticate requires a valid bearer access token. The token's subject is
// loaded from the store on every request and its activity is recorded in
// the background.
func Authenticate(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
			}

			user, err := auth.Principal(c.Request().Context(), token)
			if err != nil {
				return err
			}

			SetPrincipal(c, user)
			auth.RecordActivity(c.Request().Context(), user)
			return next(c)
		}
	}
}

// OptionalAuth attaches the principal when a usable token is present and
// otherwise lets the request through anonymously. It never records activity.
func OptionalAuth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c); ok {
				if user, err := auth.Principal(c.Request().Context(), token); err == nil {
					SetPrincipal(c, user)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
