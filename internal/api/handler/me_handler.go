package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

// MeHandler serves the caller's own profile.
type MeHandler struct {
	users ports.UserService
}

func NewMeHandler(users ports.UserService) *MeHandler {
	return &MeHandler{users: users}
}

// Get returns the authenticated user.
//
// @Summary      Current user
// @Tags         me
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /me [get]
func (h *MeHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update edits the caller's profile fields. Account flags in the body are
// ignored.
//
// @Summary      Update current user
// @Tags         me
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /me [put]
func (h *MeHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.users.Update(c.Request().Context(), user.ID, req.toInput().ProfileOnly())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}
