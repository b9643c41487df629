package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/api/middleware"
	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentUser returns the principal attached by the Authenticate
// middleware. Its absence means the route was wired without it.
func currentUser(c echo.Context) (*domain.User, error) {
	u, ok := middleware.Principal(c)
	if !ok {
		return nil, fmt.Errorf("%w: authentication required", domain.ErrUnauthenticated)
	}
	return u, nil
}

// bindAndValidate decodes the request into dst and runs struct validation.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// pageParams reads page and size from the query string. Missing values take
// the defaults; out-of-range values are rejected.
func pageParams(c echo.Context) (ports.Page, error) {
	p := ports.Page{Page: 1, Size: defaultPageSize}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, echo.NewHTTPError(http.StatusUnprocessableEntity, "page must be an integer >= 1")
		}
		p.Page = n
	}
	if v := c.QueryParam("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return p, echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("size must be an integer between 1 and %d", maxPageSize))
		}
		p.Size = n
	}
	return p, nil
}

// optionalBool reads a boolean query parameter; empty means unset.
func optionalBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("%s must be a boolean", name))
	}
	return &b, nil
}
