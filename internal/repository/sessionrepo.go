package repository

import (
	"context"

	"github.com/yproject/authcore/internal/model"
)

// SessionRepository persists session records. Missing rows surface as
// errs.ErrNotFound; services decide what that means for the caller.
type SessionRepository interface {
	// Create inserts a new session record.
	Create(ctx context.Context, s *model.UserSession) error
	// GetByID loads a session and its owner's username.
	GetByID(ctx context.Context, sessionID string) (*model.UserSession, string, error)
	// ListByUserID returns all sessions belonging to a user.
	ListByUserID(ctx context.Context, userID int64) ([]model.UserSession, error)
	// DeleteByID deletes a session unconditionally, returning the deleted record.
	DeleteByID(ctx context.Context, sessionID string) (*model.UserSession, error)
	// DeleteByIDAndUserID deletes a session only when both keys match and
	// reports whether a row was removed.
	DeleteByIDAndUserID(ctx context.Context, sessionID string, userID int64) (bool, error)
	// UpdateCurrentIP stores the last seen client address for a session.
	UpdateCurrentIP(ctx context.Context, sessionID, ip string) error
}
