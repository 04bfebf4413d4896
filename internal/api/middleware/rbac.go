package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// RBAC admits callers whose token role is one of roles. It runs after Auth: a
// request that reaches it without a role was never authenticated (401), an
// authenticated caller with another role gets domain.ErrForbidden (403).
// Roles only come from signed tokens, and tokens only carry roles stored on
// the account; self-registered accounts are always clients.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			switch {
			case role == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role")
			case !slices.Contains(roles, role):
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
