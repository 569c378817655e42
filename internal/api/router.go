package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/api/handler"
	"github.com/usermanagement/identity-api/internal/api/middleware"
	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
	infrahttp "github.com/usermanagement/identity-api/internal/infrastructure/http"
	"github.com/usermanagement/identity-api/internal/infrastructure/http/handlers"
)

// Deps are the services and probes the router wires into handlers.
type Deps struct {
	Log         zerolog.Logger
	Version     string
	AuthService ports.AuthService
	UserService ports.UserService
	RoleService ports.RoleService
	Checks      []handlers.DependencyCheck
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
// API routes are served both at the root and under /api.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "identity",
		Registerer: d.Registerer,
	}))

	// --- Operational routes (no auth required) ---
	infrahttp.RegisterOperational(e, d.Checks...)

	// --- API routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService)
	roleHandler := handler.NewRoleHandler(d.RoleService)
	home := handler.Home(d.Version)

	requireAuth := middleware.Auth(d.AuthService)
	optionalAuth := middleware.OptionalAuth(d.AuthService)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	for _, g := range []*echo.Group{e.Group(""), e.Group("/api")} {
		g.GET("", home)
		g.GET("/", home)

		auth := g.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register, optionalAuth)
		auth.GET("/verify", authHandler.Verify, requireAuth)

		users := g.Group("/users", requireAuth)
		users.GET("", userHandler.List, adminOnly)
		users.GET("/profile", userHandler.Profile)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete, adminOnly)

		g.GET("/roles", roleHandler.List)
	}

	return e
}
