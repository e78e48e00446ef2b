package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/pkg/roles"
)

type stubUserService struct {
	listFn     func(ctx context.Context) ([]*domain.User, error)
	getFn      func(ctx context.Context, id string) (*domain.User, error)
	createFn   func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn   func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn   func(ctx context.Context, id string) error
	validateFn func(ctx context.Context, id string) (bool, error)
}

func (s *stubUserService) List(ctx context.Context) ([]*domain.User, error) { return s.listFn(ctx) }
func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}
func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}
func (s *stubUserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}
func (s *stubUserService) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }
func (s *stubUserService) Validate(ctx context.Context, id string) (bool, error) {
	return s.validateFn(ctx, id)
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context) ([]*domain.User, error) {
			return []*domain.User{
				{ID: "1", Username: "a", PasswordHash: "h1", Role: roles.Admin},
				{ID: "2", Username: "b", PasswordHash: "h2", Role: roles.Client},
			}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := jsonContext(e, http.MethodGet, "/api/users", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var users []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if _, leaked := u["password"]; leaked {
			t.Fatalf("password leaked: %+v", u)
		}
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(stub)

	c, _ := jsonContext(e, http.MethodGet, "/api/users/x", "")
	c.SetParamNames("id")
	c.SetParamValues("x")

	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
			if in.Active == nil || *in.Active {
				t.Fatalf("expected explicit inactive flag, got %v", in.Active)
			}
			return &domain.User{ID: "9", Username: in.Username, Email: in.Email, Role: roles.Teacher}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/api/users",
		`{"username":"liam","email":"liam@eduka.com","password":"pw","role":"TEACHER","active":false}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "User created" || resp.User == nil || resp.User.ID != "9" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserHandler_Update_PartialFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if id != "abc" {
				t.Fatalf("unexpected id %q", id)
			}
			if in.Password != nil || in.Username != nil {
				t.Fatalf("expected only role to be set, got %+v", in)
			}
			if in.Role == nil || *in.Role != "ASSISTANT" {
				t.Fatalf("unexpected role: %v", in.Role)
			}
			return &domain.User{ID: id, Role: roles.Assistant}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := jsonContext(e, http.MethodPut, "/api/users/abc", `{"role":"ASSISTANT"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Update_InvalidEmail(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{})

	c, _ := jsonContext(e, http.MethodPut, "/api/users/abc", `{"email":"nope"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Update(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}
	h := NewUserHandler(stub)

	c, rec := jsonContext(e, http.MethodDelete, "/api/users/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Validate_BareBoolean(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		validateFn: func(ctx context.Context, id string) (bool, error) { return id == "known", nil },
	}
	h := NewUserHandler(stub)

	for id, want := range map[string]string{"known": "true", "unknown": "false"} {
		c, rec := jsonContext(e, http.MethodGet, "/api/users/"+id+"/validate", "")
		c.SetParamNames("id")
		c.SetParamValues(id)

		if err := h.Validate(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if got := string(rec.Body.Bytes()); got != want+"\n" {
			t.Fatalf("id %s: expected body %q, got %q", id, want, got)
		}
	}
}
