package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type PermissionHandler struct {
	perms ports.PermissionService
}

func NewPermissionHandler(perms ports.PermissionService) *PermissionHandler {
	return &PermissionHandler{perms: perms}
}

// List handles GET /permissions.
//
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page (>= 1)"
// @Param        size       query     int     false  "Page size (1..100)"
// @Param        search     query     string  false  "Match on name, resource or action"
// @Param        resource   query     string  false  "Exact resource"
// @Param        action     query     string  false  "Exact action"
// @Param        is_active  query     bool    false  "Filter by status"
// @Success      200        {object}  pageResponse[permissionResponse]
// @Failure      403        {object}  errorResponse
// @Router       /permissions [get]
func (h *PermissionHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}
	active, err := optionalBool(c, "is_active")
	if err != nil {
		return err
	}

	res, err := h.perms.List(c.Request().Context(), ports.PermissionFilter{
		Search:   c.QueryParam("search"),
		Resource: c.QueryParam("resource"),
		Action:   c.QueryParam("action"),
		IsActive: active,
		Page:     page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPage(res, toPermissionResponse))
}

// Resources handles GET /permissions/resources.
//
// @Summary      Distinct resources
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  resourcesResponse
// @Router       /permissions/resources [get]
func (h *PermissionHandler) Resources(c echo.Context) error {
	out, err := h.perms.Resources(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resourcesResponse{Resources: out})
}

// Actions handles GET /permissions/actions.
//
// @Summary      Distinct actions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  actionsResponse
// @Router       /permissions/actions [get]
func (h *PermissionHandler) Actions(c echo.Context) error {
	out, err := h.perms.Actions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, actionsResponse{Actions: out})
}

// Get handles GET /permissions/:id.
//
// @Summary      Get a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  permissionResponse
// @Failure      404  {object}  errorResponse
// @Router       /permissions/{id} [get]
func (h *PermissionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	perm, err := h.perms.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

// Create handles POST /permissions.
//
// @Summary      Create a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPermissionRequest  true  "Permission"
// @Success      201   {object}  permissionResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /permissions [post]
func (h *PermissionHandler) Create(c echo.Context) error {
	var req createPermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	perm, err := h.perms.Create(c.Request().Context(), ports.PermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
		IsActive:    boolOr(req.IsActive, true),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPermissionResponse(perm))
}

// Update handles PUT /permissions/:id.
//
// @Summary      Update a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                      true  "Permission ID"
// @Param        body  body      updatePermissionRequest  true  "Fields to change"
// @Success      200   {object}  permissionResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /permissions/{id} [put]
func (h *PermissionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updatePermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	perm, err := h.perms.Update(c.Request().Context(), id, ports.PermissionUpdate{
		Name:        req.Name,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

// Delete handles DELETE /permissions/:id by deactivating the permission.
//
// @Summary      Deactivate a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /permissions/{id} [delete]
func (h *PermissionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.perms.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "permission deactivated"})
}

// ToggleStatus handles POST /permissions/:id/toggle-status.
//
// @Summary      Toggle permission status
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Permission ID"
// @Success      200  {object}  permissionResponse
// @Failure      404  {object}  errorResponse
// @Router       /permissions/{id}/toggle-status [post]
func (h *PermissionHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	perm, err := h.perms.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

// CreateDefaults handles POST /permissions/create-defaults.
//
// @Summary      Create the built-in permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  createdPermissionsResponse
// @Router       /permissions/create-defaults [post]
func (h *PermissionHandler) CreateDefaults(c echo.Context) error {
	created, err := h.perms.CreateDefaults(c.Request().Context())
	if err != nil {
		return err
	}
	items := make([]permissionResponse, 0, len(created))
	for _, p := range created {
		items = append(items, toPermissionResponse(p))
	}
	return c.JSON(http.StatusOK, createdPermissionsResponse{Created: items})
}
