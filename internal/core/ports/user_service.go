package ports

import (
	"context"

	"github.com/eduka/campus-auth/internal/core/domain"
)

// CreateUserInput carries an administrative user creation.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Active   *bool
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
	Active   *bool
}

type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// Validate reports whether a user with id exists.
	Validate(ctx context.Context, id string) (bool, error)
}
