package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

func TestSeedAdmin_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	seed := AdminSeed{Username: "admin", Email: "admin@eduka.com", Password: "anypassword"}

	created, err := SeedAdmin(context.Background(), repo, seed, 4, zerolog.Nop())
	if err != nil || !created {
		t.Fatalf("expected first seed to create, got %v %v", created, err)
	}

	created, err = SeedAdmin(context.Background(), repo, seed, 4, zerolog.Nop())
	if err != nil || created {
		t.Fatalf("expected second seed to be a no-op, got %v %v", created, err)
	}

	user, err := repo.FindByEmail(context.Background(), "admin@eduka.com")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if user.Role != roles.Admin || !user.Active {
		t.Fatalf("unexpected seeded user: %+v", user)
	}
}

func TestSeedAdmin_DisabledWithoutEmail(t *testing.T) {
	repo := newStubUserRepo()
	created, err := SeedAdmin(context.Background(), repo, AdminSeed{Username: "admin"}, 4, zerolog.Nop())
	if err != nil || created {
		t.Fatalf("expected no-op, got %v %v", created, err)
	}
}

func TestSeedAdmin_RequiresPassword(t *testing.T) {
	repo := newStubUserRepo()
	_, err := SeedAdmin(context.Background(), repo, AdminSeed{Username: "admin", Email: "admin@eduka.com"}, 4, zerolog.Nop())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
