package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("username or email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrForbidden          = errors.New("access forbidden")
)
