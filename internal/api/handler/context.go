package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduka/campus-auth/internal/api/middleware"
	"github.com/eduka/campus-auth/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. Its
// absence means the route was mounted without the middleware.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id := middleware.IdentityFrom(c)
	if id == nil || id.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
