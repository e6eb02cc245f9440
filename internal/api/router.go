package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/t2m/license-platform/internal/api/handler"
	"github.com/t2m/license-platform/internal/api/middleware"
	"github.com/t2m/license-platform/internal/core/ports"
	"github.com/t2m/license-platform/pkg/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Roles       *handler.RoleHandler
	Permissions *handler.PermissionHandler
	Products    *handler.ProductHandler
	Health      *handler.HealthHandler
}

// NewRouter builds the Echo instance with all routes registered. Everything
// under /v1 except the auth entry points sits behind the access-token check
// and the per-role permission guard.
func NewRouter(h Handlers, resolver ports.RoleResolver, accessSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.Get())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("license_platform"))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", h.Health.Liveness)
	e.GET("/health/ready", h.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	authn := middleware.Auth(accessSecret)
	authz := middleware.Authorize(resolver)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, authn)
	auth.GET("/account", h.Auth.Account, authn)

	// --- Guarded resources ---
	users := v1.Group("/users", authn, authz)
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)
	users.POST("/:id/restore", h.Users.Restore)

	roles := v1.Group("/roles", authn, authz)
	roles.POST("", h.Roles.Create)
	roles.GET("", h.Roles.List)
	roles.GET("/:id", h.Roles.Get)
	roles.PATCH("/:id", h.Roles.Update)
	roles.DELETE("/:id", h.Roles.Delete)

	perms := v1.Group("/permissions", authn, authz)
	perms.POST("", h.Permissions.Create)
	perms.GET("", h.Permissions.List)
	perms.GET("/:id", h.Permissions.Get)
	perms.PATCH("/:id", h.Permissions.Update)
	perms.DELETE("/:id", h.Permissions.Delete)

	products := v1.Group("/products", authn, authz)
	products.POST("", h.Products.Create)
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.Get)
	products.PATCH("/:id", h.Products.Update)
	products.DELETE("/:id", h.Products.Delete)

	return e
}
