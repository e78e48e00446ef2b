package handler

import "github.com/eduka/campus-auth/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Auth ---

// loginRequest accepts either a username or an e-mail in Username; Email is
// honoured when Username is empty.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type loginResponse struct {
	Authenticated bool         `json:"authenticated"`
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	User          *domain.User `json:"user,omitempty"`
	Token         string       `json:"token,omitempty"`
	Error         string       `json:"error,omitempty"`
	Code          string       `json:"code,omitempty"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,role"`
}

// --- Users ---

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,role"`
	Active   *bool  `json:"active"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password"`
	Role     *string `json:"role"     validate:"omitempty,role"`
	Active   *bool   `json:"active"`
}

// messageResponse wraps write results, e.g. {"message":"User created","user":{...}}.
type messageResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user,omitempty"`
}
