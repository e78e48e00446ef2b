package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eduka/campus-auth/internal/core/domain"
)

// IdentityKey is the echo context key holding the caller's *domain.Identity.
const IdentityKey = "identity"

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error)
}

// Auth validates the bearer token and injects the identity into context.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			id, err := authn.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrTokenRevoked) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
				if errors.Is(err, domain.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by Auth, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, _ := c.Get(IdentityKey).(*domain.Identity)
	return id
}
