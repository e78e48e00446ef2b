package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduka/campus-auth/pkg/roles"
)

// RBAC enforces role-based access control. Role comparison ignores case.
// It must run after Auth.
func RBAC(allowed ...roles.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if id == nil || !roles.In(id.Role, allowed...) {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
