package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/handler"
	"github.com/iliyamo/identity-service/internal/middleware"
	"github.com/iliyamo/identity-service/internal/model"
)

// Handlers collects everything the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Tenants *handler.TenantHandler
	JWKS    *handler.JWKSHandler
	Tokens  *auth.TokenService
}

// Register wires all routes. The middleware order on protected groups is
// the contract: Authenticate first, CanAccess after — CanAccess only ever
// reads the identity Authenticate put in the context.
func Register(e *echo.Echo, h Handlers, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Public verification keys for other verifier processes.
	e.GET("/.well-known/jwks.json", h.JWKS.KeySet)

	authn := middleware.Authenticate(h.Tokens)
	limiter := middleware.NewTokenBucket(rlCfg, rdb)

	// Credential endpoints: no session required, brute-force limited.
	g := e.Group("/auth", limiter)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	// Refresh rotates the refresh token; the old one stops working.
	g.POST("/refresh", h.Auth.Refresh)
	// Logout operates on the presented refresh token and is idempotent.
	g.POST("/logout", h.Auth.Logout)

	// Session endpoints that need a live access token.
	g.GET("/self", h.Auth.Self, authn)
	g.POST("/logout-all", h.Auth.LogoutAll, authn)

	// Admin-only user management.
	users := e.Group("/users", authn, middleware.CanAccess(model.RoleAdmin))
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	// Tenants: reads are public, mutations admin-only.
	e.GET("/tenants", h.Tenants.List)
	e.GET("/tenants/:id", h.Tenants.Get)
	tenants := e.Group("/tenants", authn, middleware.CanAccess(model.RoleAdmin))
	tenants.POST("", h.Tenants.Create)
	tenants.PATCH("/:id", h.Tenants.Update)
	tenants.DELETE("/:id", h.Tenants.Delete)
}
