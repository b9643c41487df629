package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
	"github.com/RafhaelH/rbac-api/internal/core/rbac"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page (>= 1)"
// @Param        size       query     int     false  "Page size (1..100)"
// @Param        search     query     string  false  "Match on email or name"
// @Param        is_active  query     bool    false  "Filter by status"
// @Success      200        {object}  pageResponse[userResponse]
// @Failure      403        {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	active, err := optionalBool(c, "is_active")
	if err != nil {
		return err
	}

	res, err := h.users.List(c.Request().Context(), ports.UserFilter{
		Search:   c.QueryParam("search"),
		IsActive: active,
		Page:     page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPage(res, toUserResponse))
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update handles PUT /users/:id. Callers may edit themselves; editing
// others needs users:write. Account flags need users:write even on self.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := req.toInput()
	canWrite := rbac.Authorize(caller, "users", "write")
	switch {
	case canWrite:
	case caller.ID == id:
		in = in.ProfileOnly()
	default:
		return fmt.Errorf("%w: permission required: users:write", domain.ErrForbidden)
	}
	// users:write does not reach the superuser flag.
	if !caller.IsSuperuser {
		in.IsSuperuser = nil
	}

	user, err := h.users.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /users/:id by deactivating the account.
//
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deactivated"})
}

// ToggleStatus handles POST /users/:id/toggle-status.
//
// @Summary      Toggle user status
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/toggle-status [post]
func (h *UserHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// AssignRoles handles POST /users/:id/roles, replacing the role set.
//
// @Summary      Replace user roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "User ID"
// @Param        body  body      roleIDsRequest  true  "Role IDs"
// @Success      200   {object}  userResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/roles [post]
func (h *UserHandler) AssignRoles(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roleIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.AssignRoles(c.Request().Context(), id, req.RoleIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// RemoveRole handles DELETE /users/:id/roles/:role_id.
//
// @Summary      Remove a role from a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int  true  "User ID"
// @Param        role_id  path      int  true  "Role ID"
// @Success      200      {object}  messageResponse
// @Failure      404      {object}  errorResponse
// @Router       /users/{id}/roles/{role_id} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return err
	}
	if err := h.users.RemoveRole(c.Request().Context(), id, roleID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role removed"})
}
