package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/RafhaelH/rbac-api/internal/api/handler"
	"github.com/RafhaelH/rbac-api/internal/api/middleware"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
	"github.com/RafhaelH/rbac-api/internal/infrastructure/http/handlers"
)

// RouterDeps collects everything NewRouter wires into routes.
type RouterDeps struct {
	Log         zerolog.Logger
	APIPrefix   string
	CORSOrigins []string
	Env         string
	Version     string
	AppName     string

	Auth        ports.AuthService
	Users       ports.UserService
	Roles       ports.RoleService
	Permissions ports.PermissionService

	DB    handlers.Pinger
	Redis *redis.Client // optional

	// Metrics defaults to the global Prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestScopedLogger(d.Log))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "rbac",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handlers.NewHealthHandler(d.Env, d.Version)
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Health)
	e.GET("/health/live", healthHandler.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	systemHandler := handlers.NewSystemHandler(d.AppName, d.Version, d.Env, d.APIPrefix)
	e.GET("/", systemHandler.Root)
	e.GET("/info", systemHandler.Info, middleware.OptionalAuth(d.Auth))

	// --- API ---
	v1 := e.Group(d.APIPrefix)
	authn := middleware.Authenticate(d.Auth)
	can := middleware.RequirePermission

	authHandler := handler.NewAuthHandler(d.Auth)
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/token", authHandler.Token)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/register", authHandler.Register)
	auth.POST("/change-password", authHandler.ChangePassword, authn)
	auth.POST("/logout", authHandler.Logout, authn)
	auth.GET("/me/permissions", authHandler.MyPermissions, authn)

	meHandler := handler.NewMeHandler(d.Users)
	me := v1.Group("/me", authn)
	me.GET("", meHandler.Get)
	me.PUT("", meHandler.Update)

	userHandler := handler.NewUserHandler(d.Users)
	users := v1.Group("/users", authn)
	users.GET("", userHandler.List, can("users", "read"))
	users.GET("/:id", userHandler.Get, can("users", "read"))
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete, can("users", "delete"))
	users.POST("/:id/toggle-status", userHandler.ToggleStatus, can("users", "write"))
	users.POST("/:id/roles", userHandler.AssignRoles, can("users", "write"))
	users.DELETE("/:id/roles/:role_id", userHandler.RemoveRole, can("users", "write"))

	roleHandler := handler.NewRoleHandler(d.Roles)
	roles := v1.Group("/roles", authn)
	roles.GET("", roleHandler.List, can("roles", "read"))
	roles.GET("/:id", roleHandler.Get, can("roles", "read"))
	roles.POST("", roleHandler.Create, can("roles", "write"))
	roles.PUT("/:id", roleHandler.Update, can("roles", "write"))
	roles.DELETE("/:id", roleHandler.Delete, can("roles", "delete"))
	roles.POST("/:id/toggle-status", roleHandler.ToggleStatus, can("roles", "write"))
	roles.POST("/:id/permissions", roleHandler.SetPermissions, can("roles", "write"))
	roles.POST("/:id/permissions/:permission_id", roleHandler.AddPermission, can("roles", "write"))
	roles.DELETE("/:id/permissions/:permission_id", roleHandler.RemovePermission, can("roles", "write"))
	roles.POST("/:id/set-default", roleHandler.SetDefault, can("roles", "write"))

	permHandler := handler.NewPermissionHandler(d.Permissions)
	perms := v1.Group("/permissions", authn)
	perms.GET("", permHandler.List, can("permissions", "read"))
	perms.GET("/resources", permHandler.Resources, can("permissions", "read"))
	perms.GET("/actions", permHandler.Actions, can("permissions", "read"))
	perms.POST("/create-defaults", permHandler.CreateDefaults, can("permissions", "write"))
	perms.GET("/:id", permHandler.Get, can("permissions", "read"))
	perms.POST("", permHandler.Create, can("permissions", "write"))
	perms.PUT("/:id", permHandler.Update, can("permissions", "write"))
	perms.DELETE("/:id", permHandler.Delete, can("permissions", "delete"))
	perms.POST("/:id/toggle-status", permHandler.ToggleStatus, can("permissions", "write"))

	return e
}
