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

// SessionRepo implements repository.SessionRepository over pool slots.
type SessionRepo struct{ pool *pool.Pool }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(p *pool.Pool) *SessionRepo { return &SessionRepo{pool: p} }

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.UserSession) error {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(slot)

	_, err = slot.Exec(ctx, stmtSessionCreate,
		s.SessionID, s.UserID, s.CurrentIP, s.IPRange,
		s.TokenHash, s.TokenSalt, s.TokenIterations, s.ValidUntil, s.Device)
	if err != nil {
		return fmt.Errorf("%w: create session: %v", errs.ErrInternal, err)
	}
	return nil
}

// GetByID loads a session and its owner's username.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID string) (*model.UserSession, string, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, "", err
	}
	defer r.pool.Release(slot)

	var (
		s        model.UserSession
		username string
	)
	err = slot.QueryRow(ctx, stmtSessionGetByID, sessionID).Scan(
		&s.SessionID, &s.UserID, &s.CurrentIP, &s.IPRange,
		&s.TokenHash, &s.TokenSalt, &s.TokenIterations, &s.ValidUntil, &s.Device,
		&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", errs.ErrNotFound
		}
		if errors.Is(err, context.Canceled) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: get session: %v", errs.ErrInternal, err)
	}
	return &s, username, nil
}

// ListByUserID returns all sessions belonging to a user.
func (r *SessionRepo) ListByUserID(ctx context.Context, userID int64) ([]model.UserSession, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(slot)

	rows, err := slot.Query(ctx, stmtSessionsGetByUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", errs.ErrInternal, err)
	}
	defer rows.Close()

	var sessions []model.UserSession
	for rows.Next() {
		var s model.UserSession
		if err := rows.Scan(
			&s.SessionID, &s.UserID, &s.CurrentIP, &s.IPRange,
			&s.TokenHash, &s.TokenSalt, &s.TokenIterations, &s.ValidUntil, &s.Device,
		); err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", errs.ErrInternal, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", errs.ErrInternal, err)
	}
	return sessions, nil
}

// DeleteByID deletes a session unconditionally, returning the deleted record.
func (r *SessionRepo) DeleteByID(ctx context.Context, sessionID string) (*model.UserSession, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(slot)

	var s model.UserSession
	err = slot.QueryRow(ctx, stmtSessionDeleteByID, sessionID).Scan(
		&s.SessionID, &s.UserID, &s.CurrentIP, &s.IPRange,
		&s.TokenHash, &s.TokenSalt, &s.TokenIterations, &s.ValidUntil, &s.Device)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: delete session: %v", errs.ErrInternal, err)
	}
	return &s, nil
}

// DeleteByIDAndUserID deletes a session only when it belongs to the given
// user, reporting whether a row was removed. "No such session" and "not
// yours" are indistinguishable here on purpose.
func (r *SessionRepo) DeleteByIDAndUserID(ctx context.Context, sessionID string, userID int64) (bool, error) {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer r.pool.Release(slot)

	tag, err := slot.Exec(ctx, stmtSessionDeleteByIDAndUser, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("%w: delete session: %v", errs.ErrInternal, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateCurrentIP stores the last seen client address for a session.
func (r *SessionRepo) UpdateCurrentIP(ctx context.Context, sessionID, ip string) error {
	slot, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(slot)

	if _, err := slot.Exec(ctx, stmtSessionUpdateIPByID, sessionID, ip); err != nil {
		return fmt.Errorf("%w: update session ip: %v", errs.ErrInternal, err)
	}
	return nil
}
