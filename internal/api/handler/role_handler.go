package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// List handles GET /roles.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page (>= 1)"
// @Param        size       query     int     false  "Page size (1..100)"
// @Param        search     query     string  false  "Match on name or description"
// @Param        is_active  query     bool    false  "Filter by status"
// @Success      200        {object}  pageResponse[roleResponse]
// @Failure      403        {object}  errorResponse
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	active, err := optionalBool(c, "is_active")
	if err != nil {
		return err
	}

	res, err := h.roles.List(c.Request().Context(), ports.RoleFilter{
		Search:   c.QueryParam("search"),
		IsActive: active,
		Page:     page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPage(res, toRoleResponse))
}

// Get handles GET /roles/:id.
//
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  roleResponse
// @Failure      404  {object}  errorResponse
// @Router       /roles/{id} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.roles.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// Create handles POST /roles.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoleRequest  true  "Role"
// @Success      201   {object}  roleResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.roles.Create(c.Request().Context(), ports.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    boolOr(req.IsActive, true),
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// Update handles PUT /roles/:id.
//
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Role ID"
// @Param        body  body      updateRoleRequest  true  "Fields to change"
// @Success      200   {object}  roleResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /roles/{id} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.roles.Update(c.Request().Context(), id, ports.RoleUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// Delete handles DELETE /roles/:id by deactivating the role.
//
// @Summary      Deactivate a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.roles.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role deactivated"})
}

// ToggleStatus handles POST /roles/:id/toggle-status.
//
// @Summary      Toggle role status
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  roleResponse
// @Failure      404  {object}  errorResponse
// @Router       /roles/{id}/toggle-status [post]
func (h *RoleHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.roles.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// SetPermissions handles POST /roles/:id/permissions, replacing the set.
//
// @Summary      Replace role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Role ID"
// @Param        body  body      permissionIDsRequest  true  "Permission IDs"
// @Success      200   {object}  roleResponse
// @Failure      404   {object}  errorResponse
// @Router       /roles/{id}/permissions [post]
func (h *RoleHandler) SetPermissions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req permissionIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.roles.SetPermissions(c.Request().Context(), id, req.PermissionIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// AddPermission handles POST /roles/:id/permissions/:permission_id.
//
// @Summary      Add a permission to a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      int  true  "Role ID"
// @Param        permission_id  path      int  true  "Permission ID"
// @Success      200            {object}  messageResponse
// @Failure      404            {object}  errorResponse
// @Router       /roles/{id}/permissions/{permission_id} [post]
func (h *RoleHandler) AddPermission(c echo.Context) error {
	id, pid, err := rolePermissionIDs(c)
	if err != nil {
		return err
	}
	if err := h.roles.AddPermission(c.Request().Context(), id, pid); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "permission added"})
}

// RemovePermission handles DELETE /roles/:id/permissions/:permission_id.
//
// @Summary      Remove a permission from a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      int  true  "Role ID"
// @Param        permission_id  path      int  true  "Permission ID"
// @Success      200            {object}  messageResponse
// @Failure      404            {object}  errorResponse
// @Router       /roles/{id}/permissions/{permission_id} [delete]
func (h *RoleHandler) RemovePermission(c echo.Context) error {
	id, pid, err := rolePermissionIDs(c)
	if err != nil {
		return err
	}
	if err := h.roles.RemovePermission(c.Request().Context(), id, pid); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "permission removed"})
}

// SetDefault handles POST /roles/:id/set-default.
//
// @Summary      Make a role the default
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  roleResponse
// @Failure      404  {object}  errorResponse
// @Router       /roles/{id}/set-default [post]
func (h *RoleHandler) SetDefault(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.roles.SetDefault(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

func rolePermissionIDs(c echo.Context) (int64, int64, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	pid, err := pathID(c, "permission_id")
	if err != nil {
		return 0, 0, err
	}
	return id, pid, nil
}
