package auth

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository is the persistence port for user accounts. Email is the
// natural key; Create must fail with ErrUserAlreadyExists on a
// duplicate.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
}
