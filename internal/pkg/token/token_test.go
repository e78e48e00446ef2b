package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

func testUser() *domain.User {
	return &domain.User{ID: "65f0c0ffee0000000000abcd", Username: "alice", Role: roles.Teacher}
}

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, issued, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if issued.TokenID == "" {
		t.Fatalf("expected a token id")
	}

	id, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if id.UserID != "65f0c0ffee0000000000abcd" || id.Role != roles.Teacher || id.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.TokenID != issued.TokenID {
		t.Fatalf("token id mismatch: %s vs %s", id.TokenID, issued.TokenID)
	}
}

func TestManager_Parse_WrongSecret(t *testing.T) {
	raw, _, err := NewManager("secret", time.Hour).Issue(testUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := NewManager("other", time.Hour).Parse(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestManager_Parse_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestManager_Parse_RejectsOtherAlgorithms(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewManager("secret", time.Hour).Parse(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestManager_Parse_NormalizesLegacyRole(t *testing.T) {
	m := NewManager("secret", time.Hour)
	u := testUser()
	u.Role = roles.Role("user")

	raw, _, err := m.Issue(u)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	id, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if id.Role != roles.Client {
		t.Fatalf("expected CLIENT, got %q", id.Role)
	}
}
