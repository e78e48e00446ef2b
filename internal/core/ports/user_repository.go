package ports

import (
	"context"

	"github.com/eduka/campus-auth/internal/core/domain"
)

// UserRepository defines persistence for user accounts. Username and email
// uniqueness is enforced by the store at write time; implementations report a
// violation as domain.ErrDuplicateIdentity.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update applies the non-nil fields of patch and returns the updated user.
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// UserPatch carries a partial update. PasswordHash is set by the service
// only when a new password was supplied.
type UserPatch struct {
	Username     *string
	Email        *string
	Role         *string
	Active       *bool
	PasswordHash *string
}
