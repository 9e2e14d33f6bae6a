// Package middleware provides the request interceptors in front of
// protected routes: authentication, role-based access control, and rate
// limiting. Authenticate must run before CanAccess; CanAccess trusts the
// identity Authenticate placed in the context and never verifies tokens
// itself.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/model"
)

// Context keys under which Authenticate stores the verified identity.
const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxTenantID = "tenant_id"
)

// AccessTokenCookie is the cookie the auth handlers set and Authenticate
// reads. The Authorization header is the fallback source.
const AccessTokenCookie = "accessToken"

// Authenticate returns a middleware that extracts the access token from
// the accessToken cookie or a Bearer header, verifies it through the token
// service, and stores the identity claims in the request context. Every
// failure collapses into the same 401 response so callers cannot probe
// which part of the token was wrong. Access tokens are stateless, so this
// performs no database access.
func Authenticate(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := extractAccessToken(c)
			if !ok {
				return unauthorized(c)
			}
			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return unauthorized(c)
			}
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
			c.Set(ctxTenantID, claims.TenantID)
			return next(c)
		}
	}
}

func extractAccessToken(c echo.Context) (string, bool) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if raw := strings.TrimPrefix(header, "Bearer "); raw != "" {
			return raw, true
		}
	}
	return "", false
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"errors": []echo.Map{{"type": "Unauthorized", "msg": "authentication required", "path": ""}},
	})
}

// CurrentUserID returns the authenticated user's id from the context.
func CurrentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok
}

// CurrentRole returns the authenticated user's role from the context.
func CurrentRole(c echo.Context) (model.Role, bool) {
	role, ok := c.Get(ctxRole).(model.Role)
	return role, ok
}

// CurrentTenantID returns the tenant id from the context, zero when the
// user has no tenant.
func CurrentTenantID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxTenantID).(uint64)
	return id, ok
}
