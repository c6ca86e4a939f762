// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Account and credential errors.
var (
	// ErrUsernameTaken indicates a unique constraint violation on the username.
	ErrUsernameTaken = errors.New("username taken")

	// ErrUsernameFormat indicates a username outside [A-Za-z0-9_]{1,64}.
	ErrUsernameFormat = errors.New("invalid username format")

	// ErrPasswordLength indicates a password shorter than 8 or longer than 2048 bytes.
	ErrPasswordLength = errors.New("invalid password length")

	// ErrPasswordIncorrect indicates the presented password does not match the stored credential.
	ErrPasswordIncorrect = errors.New("password incorrect")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnsupportedHashAlgorithm indicates a stored credential with an unknown
	// algorithm tag. Distinct from ErrPasswordIncorrect so callers can prompt a
	// reset instead of reporting a plain mismatch.
	ErrUnsupportedHashAlgorithm = errors.New("unsupported password hashing algorithm")
)

// Session errors. A malformed cookie, an unknown session id and a token
// mismatch all map to ErrSessionInvalid so clients cannot enumerate sessions.
var (
	ErrSessionInvalid      = errors.New("session invalid")
	ErrSessionExpired      = errors.New("session expired")
	ErrSessionIPNotAllowed = errors.New("session ip not allowed")
)

// Infrastructure errors.
var (
	// ErrNotFound indicates the requested entity does not exist. Repository
	// layer only; services translate it into a domain error before it can
	// reach a caller.
	ErrNotFound = errors.New("not found")

	// ErrPoolExhausted indicates no database connection became free within the
	// acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrInternal indicates an unexpected persistence failure.
	ErrInternal = errors.New("internal error")
)
