package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

// newUser validates registration fields and builds an active user with a
// hashed password.
func newUser(username, email, password, role string, cost int) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	r, err := roles.Parse(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := hashPassword(password, cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         r,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func checkEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email must be a valid email", domain.ErrValidation)
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
