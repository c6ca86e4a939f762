package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/model"
	"github.com/yproject/authcore/internal/pool"
)

// UserRepo implements repository.UserRepository over pool slots.
type UserRepo struct{ pool *pool.Pool }

// NewUserRepo constructs a user repository.
func NewUserRepo(p *pool.Pool) *UserRepo { return &UserRepo{pool: p} }

// Create inserts a new user row and returns the assigned id.
func (r *UserRepo) Create(ctx context.Context, username, encodedPassword string) (int64, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer r.pool.Release(slot)

	var id int64
	err = slot.QueryRow(ctx, stmtUserCreate, username, encodedPassword).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.ErrUsernameTaken
		}
		return 0, fmt.Errorf("%w: create user: %v", errs.ErrInternal, err)
	}
	return id, nil
}

// GetByID selects a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(slot)

	return scanUser(slot.QueryRow(ctx, stmtUserGetByID, id))
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(slot)

	return scanUser(slot.QueryRow(ctx, stmtUserGetByUsername, username))
}

// UsernameTaken reports whether a user with the given username exists.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer r.pool.Release(slot)

	var count int64
	if err := slot.QueryRow(ctx, stmtUserIsUsernameTaken, username).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: count username: %v", errs.ErrInternal, err)
	}
	return count > 0, nil
}

// UpdatePassword replaces the user's encoded credential.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, encodedPassword string) error {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(slot)

	tag, err := slot.Exec(ctx, stmtUserUpdatePassword, id, encodedPassword)
	if err != nil {
		return fmt.Errorf("%w: update password: %v", errs.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

// TouchLastLogin stamps the user's last login time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(slot)

	if _, err := slot.Exec(ctx, stmtUserTouchLastLogin, id); err != nil {
		return fmt.Errorf("%w: touch last login: %v", errs.ErrInternal, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrUserNotFound
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan user: %v", errs.ErrInternal, err)
	}
	return &u, nil
}
