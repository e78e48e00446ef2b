package ports

import (
	"context"

	"github.com/eduka/campus-auth/internal/core/domain"
)

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token    string
	User     *domain.User
	Identity *domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login accepts a username or an email as identifier.
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, id *domain.Identity) error
	// Authenticate verifies a raw bearer token, including revocation.
	Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error)
	CurrentUser(ctx context.Context, id *domain.Identity) (*domain.User, error)
}
