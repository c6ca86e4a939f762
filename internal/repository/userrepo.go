// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/yproject/authcore/internal/model"
)

// UserRepository provides identity lookups and credential persistence.
type UserRepository interface {
	// Create inserts a new user and returns the assigned id.
	// A username collision yields errs.ErrUsernameTaken.
	Create(ctx context.Context, username, encodedPassword string) (int64, error)
	// GetByID loads a user by id.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername loads a user by username (case-sensitive).
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UsernameTaken reports whether a user with the given username exists.
	UsernameTaken(ctx context.Context, username string) (bool, error)
	// UpdatePassword replaces the user's encoded credential.
	UpdatePassword(ctx context.Context, id int64, encodedPassword string) error
	// TouchLastLogin stamps the user's last login time.
	TouchLastLogin(ctx context.Context, id int64) error
}
