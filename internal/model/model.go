// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"
)

// User is an account record. Only ID and Username are populated when the
// user is resolved from a session lookup; Password carries the encoded
// credential string ("pbkdf2;<hash_hex>;<salt_hex>;<iterations>;") when the
// full row was fetched.
type User struct {
	ID        int64
	Username  string // unique, [A-Za-z0-9_]{1,64}
	Password  string // encoded credential, never cleartext
	LastLogin *time.Time
}

// UserSession is a persisted session record. The cleartext token is never
// part of this struct; see SessionCreation.
type UserSession struct {
	SessionID       string // UUID string, 36 chars, sole lookup key
	UserID          int64
	CurrentIP       string // last seen client address
	IPRange         string // allowed range, e.g. "10.0.0.5/32"
	TokenHash       string // hex, 128 chars
	TokenSalt       string // hex, 128 chars
	TokenIterations int
	ValidUntil      time.Time
	Device          string // free-text client descriptor
}

// Expired reports whether the session is past its expiry at the given time.
func (s *UserSession) Expired(now time.Time) bool {
	return now.After(s.ValidUntil)
}

// SessionCreation is the result of minting a session: the stored record plus
// the one-time cleartext token (hex, 128 chars). The token exists only here,
// at creation time, and is never persisted.
type SessionCreation struct {
	Session UserSession
	Token   string
}

// CookieValue returns the composite value embedded in the client's session
// cookie: "<session_id>:<token_hex>".
func (c *SessionCreation) CookieValue() string {
	return fmt.Sprintf("%s:%s", c.Session.SessionID, c.Token)
}
