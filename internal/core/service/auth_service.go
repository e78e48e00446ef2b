package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
	"github.com/eduka/campus-auth/internal/pkg/token"
)

// AuthService implements registration, login and token lifecycle.
type AuthService struct {
	repo        ports.UserRepository
	tokens      *token.Manager
	revocations ports.TokenRevocationStore
	events      ports.AuthEventRecorder
	bcryptCost  int
	log         zerolog.Logger
	// dummyHash is compared against when no user matches, so unknown
	// identifiers cost the same as wrong passwords.
	dummyHash []byte
}

// NewAuthService wires the service. revocations and events may be nil.
func NewAuthService(
	repo ports.UserRepository,
	tokens *token.Manager,
	revocations ports.TokenRevocationStore,
	events ports.AuthEventRecorder,
	bcryptCost int,
	log zerolog.Logger,
) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("eduka-no-such-user"), bcryptCost)
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		revocations: revocations,
		events:      events,
		bcryptCost:  bcryptCost,
		log:         log,
		dummyHash:   dummy,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	user, err := newUser(in.Username, in.Email, in.Password, in.Role, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	s.record(domain.AuthEvent{
		Type:       domain.EventRegistered,
		Identifier: created.Username,
		UserID:     created.ID,
		Email:      created.Email,
		Role:       string(created.Role),
	})
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.loginFailed(identifier, "unknown identifier")
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.loginFailed(identifier, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		s.loginFailed(identifier, "inactive account")
		return nil, domain.ErrInvalidCredentials
	}

	raw, identity, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.record(domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		Identifier: identifier,
		UserID:     user.ID,
		Role:       string(user.Role),
	})
	return &ports.LoginResult{Token: raw, User: user, Identity: identity}, nil
}

// lookup resolves identifier as a username first, then as an email.
func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.repo.FindByEmail(ctx, identifier)
}

func (s *AuthService) Logout(ctx context.Context, id *domain.Identity) error {
	if id == nil {
		return domain.ErrUnauthorized
	}
	if s.revocations != nil && id.TokenID != "" {
		until := id.Expires
		if until.IsZero() {
			until = time.Now().Add(24 * time.Hour)
		}
		if err := s.revocations.Revoke(ctx, id.TokenID, until); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	s.record(domain.AuthEvent{
		Type:       domain.EventLoggedOut,
		Identifier: id.Username,
		UserID:     id.UserID,
		Role:       string(id.Role),
	})
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error) {
	id, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	if s.revocations != nil && id.TokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, id.TokenID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", id.UserID).Msg("revocation check failed, accepting token")
		case revoked:
			return nil, domain.ErrTokenRevoked
		}
	}

	// The token only proves who signed in. Deletion, deactivation and role
	// changes take effect on the next request.
	user, err := s.repo.FindByID(ctx, id.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
	case err != nil:
		return nil, err
	case !user.Active:
		return nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	id.Username = user.Username
	id.Role = user.Role
	return id, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, id *domain.Identity) (*domain.User, error) {
	if id == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.FindByID(ctx, id.UserID)
}

func (s *AuthService) loginFailed(identifier, reason string) {
	s.log.Debug().Str("identifier", identifier).Str("reason", reason).Msg("login rejected")
	s.record(domain.AuthEvent{
		Type:       domain.EventLoginFailed,
		Identifier: identifier,
		Detail:     reason,
	})
}

func (s *AuthService) record(ev domain.AuthEvent) {
	if s.events == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.events.Record(ev)
}
