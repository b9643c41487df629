package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/api/middleware"
)

var features = []string{
	"JWT authentication",
	"Role-based access control",
	"User management",
	"Permission management",
	"OpenAPI documentation",
}

// SystemHandler serves the root banner and GET /info.
type SystemHandler struct {
	name      string
	version   string
	env       string
	apiPrefix string
}

func NewSystemHandler(name, version, env, apiPrefix string) *SystemHandler {
	return &SystemHandler{name: name, version: version, env: env, apiPrefix: apiPrefix}
}

type rootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Docs    string `json:"docs"`
	API     string `json:"api"`
}

type infoResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Features    []string `json:"features"`
	Environment string   `json:"environment,omitempty"`
}

// Root is the unauthenticated landing document.
//
// @Summary      API banner
// @Tags         system
// @Produce      json
// @Success      200  {object}  rootResponse
// @Router       / [get]
func (h *SystemHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{
		Name:    h.name,
		Version: h.version,
		Status:  "online",
		Docs:    "/swagger/index.html",
		API:     h.apiPrefix,
	})
}

// Info describes the running service. The environment is shown to
// superusers only; it expects OptionalAuth in front of it.
//
// @Summary      Service information
// @Tags         system
// @Produce      json
// @Success      200  {object}  infoResponse
// @Router       /info [get]
func (h *SystemHandler) Info(c echo.Context) error {
	resp := infoResponse{Name: h.name, Version: h.version, Features: features}
	if u, ok := middleware.Principal(c); ok && u.IsSuperuser {
		resp.Environment = h.env
	}
	return c.JSON(http.StatusOK, resp)
}
