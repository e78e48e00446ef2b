// Package token issues and verifies the HS256 access tokens handed out at login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

const issuer = "eduka-user-service"

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims is the payload embedded in every access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and parses tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user. The subject is the user id and the jti is a
// fresh UUID so the token can be revoked individually.
func (m *Manager) Issue(user *domain.User) (string, *domain.Identity, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	role := roles.Normalize(user.Role)
	claims := Claims{
		Username: user.Username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &domain.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     role,
		TokenID:  claims.ID,
		Expires:  exp,
	}, nil
}

// Parse verifies signature, algorithm and expiry and returns the identity.
func (m *Manager) Parse(raw string) (*domain.Identity, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, ErrTokenInvalid
	}

	id := &domain.Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     roles.Normalize(roles.Role(claims.Role)),
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.Expires = claims.ExpiresAt.Time
	}
	return id, nil
}
