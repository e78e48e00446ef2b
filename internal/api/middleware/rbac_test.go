package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

func runRBAC(t *testing.T, id *domain.Identity, allowed ...roles.Role) (int, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(IdentityKey, id)
	}

	called := false
	handler := RBAC(allowed...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, called
}

func TestRBAC_Allows(t *testing.T) {
	code, called := runRBAC(t, &domain.Identity{UserID: "1", Role: roles.Admin}, roles.Admin, roles.Teacher)
	if !called || code != http.StatusOK {
		t.Fatalf("expected access, got %d", code)
	}
}

func TestRBAC_IgnoresCase(t *testing.T) {
	code, called := runRBAC(t, &domain.Identity{UserID: "1", Role: roles.Role("teacher")}, roles.Teacher)
	if !called || code != http.StatusOK {
		t.Fatalf("expected case-insensitive match, got %d", code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	code, called := runRBAC(t, &domain.Identity{UserID: "1", Role: roles.Student}, roles.Teacher, roles.Assistant)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRBAC_NoIdentity(t *testing.T) {
	if code, called := runRBAC(t, nil, roles.Admin); called || code != http.StatusForbidden {
		t.Fatalf("expected 403 without identity, got %d", code)
	}
}

func TestRBAC_LegacyRoleLabel(t *testing.T) {
	if code, called := runRBAC(t, &domain.Identity{UserID: "1", Role: roles.Role("user")}, roles.Client); !called || code != http.StatusOK {
		t.Fatalf("expected legacy user label to pass as CLIENT, got %d", code)
	}
	if code, called := runRBAC(t, &domain.Identity{UserID: "1", Role: roles.Role("user")}, roles.Admin); called || code != http.StatusForbidden {
		t.Fatalf("expected legacy user label to be refused admin routes, got %d", code)
	}
}
