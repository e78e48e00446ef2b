package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/api/middleware"
	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/pkg/roles"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn        func(ctx context.Context, identifier, password string) (*ports.LoginResult, error)
	logoutFn       func(ctx context.Context, id *domain.Identity) error
	currentUserFn  func(ctx context.Context, id *domain.Identity) (*domain.User, error)
	authenticateFn func(ctx context.Context, raw string) (*domain.Identity, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) Logout(ctx context.Context, id *domain.Identity) error {
	return s.logoutFn(ctx, id)
}

func (s *stubAuthService) Authenticate(ctx context.Context, raw string) (*domain.Identity, error) {
	return s.authenticateFn(ctx, raw)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, id *domain.Identity) (*domain.User, error) {
	return s.currentUserFn(ctx, id)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Email != "alice@eduka.com" || in.Role != "STUDENT" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Username: in.Username, Email: in.Email, PasswordHash: "hash", Role: roles.Student, Active: true}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/register",
		`{"username":"alice","password":"secret","email":"alice@eduka.com","role":"STUDENT"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User registered" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["role"] != "STUDENT" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password field must never be returned")
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateIdentity
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/register",
		`{"username":"bob","password":"pw","email":"bob@eduka.com"}`)

	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/register", `{"username":"bob","email":"not-an-email"}`)

	err := h.Register(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "email must be a valid email") || !strings.Contains(err.Error(), "password is required") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/register", "not-json")

	var he *echo.HTTPError
	if err := h.Register(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			if identifier != "admin@eduka.com" || password != "anypassword" {
				t.Fatalf("unexpected args: %s %s", identifier, password)
			}
			return &ports.LoginResult{
				Token: "token123",
				User:  &domain.User{ID: "a1", Username: "admin", Role: roles.Admin, PasswordHash: "hash"},
			}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/login", `{"username":"admin@eduka.com","password":"anypassword"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["authenticated"] != true || resp["success"] != true {
		t.Fatalf("expected authenticated response, got %+v", resp)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "ADMIN" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password field must never be returned")
	}
}

func TestAuthHandler_Login_EmailFieldFallback(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			got = identifier
			return &ports.LoginResult{Token: "t", User: &domain.User{ID: "x"}}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/login", `{"email":"maria@eduka.com","password":"pw"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "maria@eduka.com" {
		t.Fatalf("expected email to be used as identifier, got %q", got)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"bad"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["authenticated"] != false || resp["error"] != "Invalid credentials" || resp["code"] != CodeInvalidCredentials {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if _, ok := resp["token"]; ok {
		t.Fatalf("token must be absent on failure")
	}
}

func TestAuthHandler_Login_StoreFailurePropagates(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("mongo unavailable")
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
			return nil, boom
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw"}`)
	if err := h.Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	var revoked *domain.Identity
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, id *domain.Identity) error {
			revoked = id
			return nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/auth/logout", "")
	c.Set(middleware.IdentityKey, &domain.Identity{UserID: "u1", TokenID: "jti"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if revoked == nil || revoked.TokenID != "jti" {
		t.Fatalf("expected identity to be passed to logout, got %+v", revoked)
	}
}

func TestAuthHandler_CurrentUser_RequiresIdentity(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, zerolog.Nop())

	c, _ := jsonContext(e, http.MethodGet, "/api/auth/current-user", "")

	var he *echo.HTTPError
	if err := h.CurrentUser(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_CurrentUser(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		currentUserFn: func(ctx context.Context, id *domain.Identity) (*domain.User, error) {
			return &domain.User{ID: id.UserID, Username: "liam", Role: roles.Teacher}, nil
		},
	}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodGet, "/api/auth/current-user", "")
	c.Set(middleware.IdentityKey, &domain.Identity{UserID: "u7"})

	if err := h.CurrentUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var user map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user["id"] != "u7" || user["role"] != "TEACHER" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
