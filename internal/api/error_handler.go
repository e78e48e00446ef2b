package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/api/handler"
	"github.com/eduka/campus-auth/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: handler.CodeValidation}
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: handler.CodeDuplicateIdentity}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid credentials", Code: handler.CodeInvalidCredentials}
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: handler.CodeAuthorization}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden", Code: handler.CodeForbidden}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "User not found", Code: handler.CodeNotFound}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: handler.CodeServerError}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return handler.CodeValidation
	case status == http.StatusUnauthorized:
		return handler.CodeAuthorization
	case status == http.StatusForbidden:
		return handler.CodeForbidden
	case status == http.StatusNotFound:
		return handler.CodeNotFound
	case status >= http.StatusInternalServerError:
		return handler.CodeServerError
	default:
		return http.StatusText(status)
	}
}
