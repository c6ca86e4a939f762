package service

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	pkgcrypto "github.com/yproject/authcore/internal/crypto"
	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/model"
	"github.com/yproject/authcore/internal/repository"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// AuthService defines account operations.
type AuthService interface {
	// CreateUser registers a new account and returns the assigned user id.
	CreateUser(ctx context.Context, username, password string) (int64, error)
	// Login verifies credentials and mints a session bound to the client
	// address. The returned user carries id and username.
	Login(ctx context.Context, username, password, clientIP, device string) (*model.User, *model.SessionCreation, error)
	// UpdatePassword replaces the user's credential after verifying the
	// current password.
	UpdatePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions SessionService
	logger   *zap.Logger
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions SessionService, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, sessions: sessions, logger: logger}
}

// CreateUser validates the username and password format, hashes the
// password and inserts the account. Format checks run before any hashing or
// database write; the hash-level length re-check stays in place in case
// this path is ever bypassed.
func (s *AuthServiceImpl) CreateUser(ctx context.Context, username, password string) (int64, error) {
	if len(password) < pkgcrypto.MinPasswordLen || len(password) > pkgcrypto.MaxPasswordLen {
		return 0, errs.ErrPasswordLength
	}
	if !usernameRe.MatchString(username) {
		return 0, errs.ErrUsernameFormat
	}

	encoded, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return 0, err
	}

	id, err := s.users.Create(ctx, username, encoded)
	if err != nil {
		return 0, err
	}

	s.logger.Info("user created", zap.Int64("user_id", id), zap.String("username", username))
	return id, nil
}

// Login checks the password against the stored credential and creates a
// session on success. The last-login stamp is best-effort.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, clientIP, device string) (*model.User, *model.SessionCreation, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	if err := pkgcrypto.VerifyPassword(u.Password, password); err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		s.logger.Error("could not update last login", zap.Int64("user_id", u.ID), zap.Error(err))
	}

	creation, err := s.sessions.Create(ctx, u.ID, clientIP, device)
	if err != nil {
		return nil, nil, err
	}

	return &model.User{ID: u.ID, Username: u.Username}, creation, nil
}

// UpdatePassword verifies the current password and atomically replaces the
// stored credential with a freshly salted hash of the new one.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < pkgcrypto.MinPasswordLen || len(newPassword) > pkgcrypto.MaxPasswordLen {
		return errs.ErrPasswordLength
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := pkgcrypto.VerifyPassword(u.Password, currentPassword); err != nil {
		return err
	}

	encoded, err := pkgcrypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, encoded); err != nil {
		return err
	}

	s.logger.Info("password updated", zap.Int64("user_id", userID))
	return nil
}
