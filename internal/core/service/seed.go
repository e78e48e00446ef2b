package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/pkg/roles"
)

// AdminSeed describes the bootstrap administrator.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedAdmin creates the administrator account unless a user with the same
// e-mail already exists. It reports whether an account was created.
func SeedAdmin(ctx context.Context, repo ports.UserRepository, seed AdminSeed, bcryptCost int, log zerolog.Logger) (bool, error) {
	if seed.Email == "" {
		return false, nil
	}

	_, err := repo.FindByEmail(ctx, seed.Email)
	if err == nil {
		log.Debug().Str("email", seed.Email).Msg("admin already seeded")
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("seed lookup: %w", err)
	}

	user, err := newUser(seed.Username, seed.Email, seed.Password, string(roles.Admin), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	created, err := repo.Create(ctx, user)
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		// Another replica won the race.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("admin account seeded")
	return true, nil
}
