// Package postgres contains PostgreSQL implementations of repository
// interfaces. All queries run as named prepared statements over pool slots;
// the statement set is prepared once per connection at startup.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Prepared statement names. Repositories execute these by name.
const (
	stmtUserIsUsernameTaken = "user_is_username_taken"
	stmtUserCreate          = "user_create"
	stmtUserGetByID         = "user_get_by_id"
	stmtUserGetByUsername   = "user_get_by_username"
	stmtUserUpdatePassword  = "user_update_password"
	stmtUserTouchLastLogin  = "user_touch_last_login"

	stmtSessionCreate            = "session_create"
	stmtSessionGetByID           = "session_get_by_id"
	stmtSessionsGetByUserID      = "sessions_get_by_user_id"
	stmtSessionDeleteByID        = "session_delete_by_id"
	stmtSessionDeleteByIDAndUser = "session_delete_by_id_and_user_id"
	stmtSessionUpdateIPByID      = "session_update_ip_by_id"
)

const sessionColumns = `session_id, session_user_id, session_current_ip, session_ip_range,
session_token_hash, session_token_salt, session_token_iterations, session_valid_until, session_device`

var statements = map[string]string{
	stmtUserIsUsernameTaken: `SELECT count(*) FROM users WHERE user_username = $1`,

	stmtUserCreate: `INSERT INTO users (user_username, user_password) VALUES ($1, $2) RETURNING user_id`,

	stmtUserGetByID: `SELECT user_id, user_username, user_password, user_last_login
FROM users WHERE user_id = $1`,

	stmtUserGetByUsername: `SELECT user_id, user_username, user_password, user_last_login
FROM users WHERE user_username = $1`,

	stmtUserUpdatePassword: `UPDATE users SET user_password = $2 WHERE user_id = $1`,

	stmtUserTouchLastLogin: `UPDATE users SET user_last_login = now() WHERE user_id = $1`,

	stmtSessionCreate: `INSERT INTO user_sessions (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,

	stmtSessionGetByID: `SELECT ` + sessionColumns + `, u.user_username
FROM user_sessions
INNER JOIN users u ON (user_sessions.session_user_id = u.user_id)
WHERE session_id = $1`,

	stmtSessionsGetByUserID: `SELECT ` + sessionColumns + ` FROM user_sessions WHERE session_user_id = $1`,

	stmtSessionDeleteByID: `DELETE FROM user_sessions WHERE session_id = $1 RETURNING ` + sessionColumns,

	stmtSessionDeleteByIDAndUser: `DELETE FROM user_sessions WHERE session_id = $1 AND session_user_id = $2`,

	stmtSessionUpdateIPByID: `UPDATE user_sessions SET session_current_ip = $2 WHERE session_id = $1`,
}

// PrepareStatements prepares the full statement set on a connection. Pass it
// to pool.New; any single failure aborts startup.
func PrepareStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}
