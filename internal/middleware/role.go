package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/model"
)

// CanAccess returns a middleware that enforces that the authenticated
// user's role is one of the allowed roles. It is a pure membership check
// on the role Authenticate already placed in the context: no I/O, no
// token verification. A missing role means the pipeline was wired wrong
// (CanAccess before Authenticate) and is rejected the same way.
func CanAccess(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := CurrentRole(c)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"errors": []echo.Map{{"type": "Forbidden", "msg": "insufficient permissions", "path": ""}},
				})
			}
			return next(c)
		}
	}
}
