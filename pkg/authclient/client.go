// Package authclient is a typed client for the Eduka user service. Every
// failure is reported as an *Error carrying one of a fixed set of kinds.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/eduka/campus-auth/pkg/roles"
)

// User is the account projection returned by the service.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      roles.Role `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User  User
	Token string
}

// RegisterRequest is a self-registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Client talks to the user service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// New builds a Client. A circuit breaker fails calls fast with
// KindNetworkUnavailable after repeated transport or 5xx failures.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eduka-user-service",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !KindOf(err).retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

type loginBody struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
	User          *User  `json:"user"`
	Token         string `json:"token"`
}

// Login authenticates with a username or e-mail.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	var out loginBody
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": identifier, "password": password}, &out,
		func(status int) (Kind, bool) {
			if status == http.StatusUnauthorized {
				return KindInvalidCredentials, true
			}
			return "", false
		})
	if err != nil {
		return nil, err
	}
	if !out.Authenticated || out.User == nil || out.Token == "" {
		return nil, &Error{Kind: KindServerError, Status: http.StatusOK, Message: "malformed login response"}
	}
	return &LoginResult{User: *out.User, Token: out.Token}, nil
}

// Register creates an account and returns it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &out, nil); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed register response"}
	}
	return out.User, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil, nil)
}

// CurrentUser returns the account token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/auth/current-user", token, nil, &u, nil); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/users", token, nil, &users, nil); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one account.
func (c *Client) GetUser(ctx context.Context, token, id string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), token, nil, &u, nil); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), token, nil, nil, nil)
}

// ValidateUser reports whether id names an existing account.
func (c *Client) ValidateUser(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id)+"/validate", "", nil, &ok, nil); err != nil {
		return false, err
	}
	return ok, nil
}

// statusOverride lets a call reinterpret specific statuses.
type statusOverride func(status int) (Kind, bool)

func (c *Client) do(ctx context.Context, method, path, token string, in, out any, override statusOverride) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, token, in, out, override)
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Kind: KindNetworkUnavailable, Message: "user service temporarily unavailable", Err: err}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, in, out any, override statusOverride) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("authclient: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("authclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Message: "cannot reach user service", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Status: resp.StatusCode, Message: "connection dropped", Err: err}
	}

	if resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, raw, override)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServerError, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func (c *Client) statusError(status int, raw []byte, override statusOverride) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &envelope)
	msg := envelope.Error
	if msg == "" {
		msg = envelope.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	kind, ok := Kind(""), false
	if override != nil {
		kind, ok = override(status)
	}
	if !ok {
		kind = kindForStatus(status)
	}

	if kind.retryable() {
		c.log.Warn().Int("status", status).Str("message", msg).Msg("user service error")
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return KindValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServerError
	}
}
