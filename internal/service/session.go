// Package service contains application services for accounts and sessions.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/yproject/authcore/internal/crypto"
	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/hexenc"
	"github.com/yproject/authcore/internal/ipnet"
	"github.com/yproject/authcore/internal/model"
	"github.com/yproject/authcore/internal/repository"
)

// DefaultSessionLifetime is how long a freshly minted session stays valid
// (~3 months).
const DefaultSessionLifetime = 7890000 * time.Second

const (
	tokenSize    = 64
	tokenHexLen  = 2 * tokenSize
	sessionIDLen = 36
)

// ValidateOpts tunes session validation.
type ValidateOpts struct {
	// SkipIPCheck verifies only the token, skipping the expiry and ip-range
	// checks. Used by logout, where only token validity matters.
	SkipIPCheck bool
	// ReadOnly suppresses all database writes (the current_ip refresh).
	ReadOnly bool
}

// SessionService creates, validates and destroys user sessions.
type SessionService interface {
	// Create mints a session for the user, binding it to the client address.
	Create(ctx context.Context, userID int64, clientIP, device string) (*model.SessionCreation, error)
	// Validate checks a session cookie value and returns the owning user
	// (id and username only) together with the session record.
	Validate(ctx context.Context, cookieValue, clientIP string, opts ValidateOpts) (*model.User, *model.UserSession, error)
	// Logout ends the session carried by the cookie value. It never reports
	// failure: the client discards its cookie regardless of server-side state.
	Logout(ctx context.Context, cookieValue, clientIP string)
	// Destroy deletes a session unconditionally. reason is recorded for the
	// audit trail.
	Destroy(ctx context.Context, sessionID, reason string) (*model.UserSession, error)
	// DestroySafe deletes a session only if it belongs to ownerUserID.
	// "Not found" and "not yours" are indistinguishable in the result so
	// session existence does not leak across accounts.
	DestroySafe(ctx context.Context, sessionID string, ownerUserID int64) bool
	// ListByUser returns all of a user's sessions.
	ListByUser(ctx context.Context, userID int64) ([]model.UserSession, error)
}

// SessionServiceImpl implements SessionService over a session repository.
type SessionServiceImpl struct {
	sessions repository.SessionRepository
	lifetime time.Duration
	logger   *zap.Logger
}

// NewSessionService constructs a SessionService. A non-positive lifetime
// falls back to DefaultSessionLifetime.
func NewSessionService(sessions repository.SessionRepository, lifetime time.Duration, logger *zap.Logger) *SessionServiceImpl {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionServiceImpl{sessions: sessions, lifetime: lifetime, logger: logger}
}

// Create generates a random 64-byte token and salt, stores the salted token
// hash and returns the record together with the one-time cleartext token.
// The cleartext never reaches the database.
func (s *SessionServiceImpl) Create(ctx context.Context, userID int64, clientIP, device string) (*model.SessionCreation, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("%w: generate session id: %v", errs.ErrInternal, err)
	}
	token, err := pkgcrypto.RandBytes(tokenSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate session token: %v", errs.ErrInternal, err)
	}
	salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate token salt: %v", errs.ErrInternal, err)
	}

	hash := pkgcrypto.DeriveKey(token, salt, pkgcrypto.SessionTokenIterations)

	session := model.UserSession{
		SessionID:       id.String(),
		UserID:          userID,
		CurrentIP:       clientIP,
		IPRange:         fmt.Sprintf("%s/32", clientIP),
		TokenHash:       hexenc.Encode(hash),
		TokenSalt:       hexenc.Encode(salt),
		TokenIterations: pkgcrypto.SessionTokenIterations,
		ValidUntil:      time.Now().Add(s.lifetime),
		Device:          device,
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		return nil, err
	}

	return &model.SessionCreation{Session: session, Token: hexenc.Encode(token)}, nil
}

// Validate checks a "session_id:token_hex" cookie value. Anything that does
// not look right about the cookie, the session record or the token yields
// ErrSessionInvalid; expiry and ip-range violations have their own errors so
// the caller can message the user.
func (s *SessionServiceImpl) Validate(ctx context.Context, cookieValue, clientIP string, opts ValidateOpts) (*model.User, *model.UserSession, error) {
	sessionID, tokenHex, err := splitCookieValue(cookieValue)
	if err != nil {
		return nil, nil, err
	}

	session, username, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil, errs.ErrSessionInvalid
		}
		return nil, nil, err
	}

	if !tokenMatches(tokenHex, session) {
		return nil, nil, errs.ErrSessionInvalid
	}

	if !opts.SkipIPCheck {
		if session.Expired(time.Now()) {
			// Expired sessions are removed as soon as they are discovered.
			if _, err := s.sessions.DeleteByID(ctx, session.SessionID); err != nil {
				s.logger.Error("could not delete expired session",
					zap.String("session_id", session.SessionID), zap.Error(err))
			}
			return nil, nil, errs.ErrSessionExpired
		}

		// The session stays alive: it may still be valid from an allowed address.
		if !ipnet.InRange(clientIP, session.IPRange) {
			return nil, nil, errs.ErrSessionIPNotAllowed
		}
	}

	if !opts.ReadOnly && clientIP != session.CurrentIP {
		if err := s.sessions.UpdateCurrentIP(ctx, session.SessionID, clientIP); err != nil {
			s.logger.Error("could not update session current_ip",
				zap.String("session_id", session.SessionID), zap.Error(err))
		} else {
			session.CurrentIP = clientIP
		}
	}

	return &model.User{ID: session.UserID, Username: username}, session, nil
}

// Logout validates the cookie without touching the database and destroys the
// session if there is one. The caller instructs the client to drop its
// cookie either way, so there is nothing to report.
func (s *SessionServiceImpl) Logout(ctx context.Context, cookieValue, clientIP string) {
	_, session, err := s.Validate(ctx, cookieValue, clientIP, ValidateOpts{SkipIPCheck: true, ReadOnly: true})
	if err != nil {
		return
	}
	if _, err := s.Destroy(ctx, session.SessionID, "logout"); err != nil {
		s.logger.Warn("logout: could not destroy session",
			zap.String("session_id", session.SessionID), zap.Error(err))
	}
}

// Destroy deletes a session by id and returns the deleted record.
func (s *SessionServiceImpl) Destroy(ctx context.Context, sessionID, reason string) (*model.UserSession, error) {
	deleted, err := s.sessions.DeleteByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %s not found", errs.ErrInternal, sessionID)
		}
		return nil, err
	}

	s.logger.Info("session destroyed",
		zap.String("session_id", sessionID),
		zap.Int64("user_id", deleted.UserID),
		zap.String("reason", reason))

	return deleted, nil
}

// DestroySafe deletes a session only when it belongs to ownerUserID.
func (s *SessionServiceImpl) DestroySafe(ctx context.Context, sessionID string, ownerUserID int64) bool {
	ok, err := s.sessions.DeleteByIDAndUserID(ctx, sessionID, ownerUserID)
	if err != nil {
		s.logger.Error("could not delete session",
			zap.String("session_id", sessionID), zap.Int64("user_id", ownerUserID), zap.Error(err))
		return false
	}
	if ok {
		s.logger.Info("session destroyed",
			zap.String("session_id", sessionID),
			zap.Int64("user_id", ownerUserID),
			zap.String("reason", "owner_revoke"))
	}
	return ok
}

// ListByUser returns all of a user's sessions.
func (s *SessionServiceImpl) ListByUser(ctx context.Context, userID int64) ([]model.UserSession, error) {
	return s.sessions.ListByUserID(ctx, userID)
}

// splitCookieValue parses "session_id:token_hex". Exactly two parts, a
// 36-char id and a 128-char hex token; anything else is invalid.
func splitCookieValue(v string) (sessionID, tokenHex string, err error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return "", "", errs.ErrSessionInvalid
	}
	if len(parts[0]) != sessionIDLen || len(parts[1]) != tokenHexLen {
		return "", "", errs.ErrSessionInvalid
	}
	return parts[0], parts[1], nil
}

// tokenMatches re-derives a hash from the presented cleartext token using
// the session's stored salt and iteration count and compares it with the
// stored hash in constant time. Undecodable stored material fails closed.
func tokenMatches(tokenHex string, session *model.UserSession) bool {
	token, err := hexenc.Decode(tokenHex)
	if err != nil || len(token) != tokenSize {
		return false
	}
	salt, err := hexenc.Decode(session.TokenSalt)
	if err != nil || len(salt) != pkgcrypto.SaltSize {
		return false
	}
	storedHash, err := hexenc.Decode(session.TokenHash)
	if err != nil || len(storedHash) != pkgcrypto.KeySize {
		return false
	}
	if session.TokenIterations <= 0 {
		return false
	}

	got := pkgcrypto.DeriveKey(token, salt, session.TokenIterations)
	return subtle.ConstantTimeCompare(got, storedHash) == 1
}
