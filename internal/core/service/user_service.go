package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/pkg/roles"
)

const (
	validateCacheSize = 4096
	validateCacheTTL  = 30 * time.Second
)

// UserService implements administrative CRUD over user accounts.
type UserService struct {
	repo       ports.UserRepository
	events     ports.AuthEventRecorder
	bcryptCost int
	log        zerolog.Logger
	// exists caches Validate answers for other services.
	exists *lru.LRU[string, bool]
}

// NewUserService wires the service. events may be nil.
func NewUserService(repo ports.UserRepository, events ports.AuthEventRecorder, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		events:     events,
		bcryptCost: bcryptCost,
		log:        log,
		exists:     lru.NewLRU[string, bool](validateCacheSize, nil, validateCacheTTL),
	}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	user, err := newUser(in.Username, in.Email, in.Password, in.Role, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if in.Active != nil {
		user.Active = *in.Active
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.exists.Remove(created.ID)

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// Update applies the supplied fields. The password is re-hashed only when a
// new one is given.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	var patch ports.UserPatch

	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if v == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrValidation)
		}
		patch.Username = &v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		if err := checkEmail(v); err != nil {
			return nil, err
		}
		v = strings.ToLower(v)
		patch.Email = &v
	}
	if in.Role != nil {
		r, err := roles.Parse(*in.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		v := string(r)
		patch.Role = &v
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	patch.Active = in.Active

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Msg("user updated")
	return updated, nil
}

// Delete removes the user unconditionally; related records in other
// services are not touched.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.exists.Remove(id)

	s.log.Info().Str("user_id", id).Msg("user deleted")
	if s.events != nil {
		s.events.Record(domain.AuthEvent{
			Type:       domain.EventUserDeleted,
			Identifier: id,
			UserID:     id,
			Timestamp:  time.Now().UTC(),
		})
	}
	return nil
}

func (s *UserService) Validate(ctx context.Context, id string) (bool, error) {
	if ok, hit := s.exists.Get(id); hit {
		return ok, nil
	}
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	s.exists.Add(id, ok)
	return ok, nil
}
