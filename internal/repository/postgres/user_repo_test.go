package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/pool"
)

func newTestPool(t *testing.T) (*pool.Pool, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return pool.NewFromConns([]pool.Conn{mock}, time.Second, zap.NewNop()), mock
}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	mock.ExpectQuery(`user_create`).
		WithArgs("alice", "pbkdf2;aa;bb;200000;").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(7)))
	id, err := r.Create(ctx, "alice", "pbkdf2;aa;bb;200000;")
	require.NoError(t, err)
	require.Equal(t, int64(7), id)

	mock.ExpectQuery(`user_create`).
		WithArgs("alice", "pbkdf2;aa;bb;200000;").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Create(ctx, "alice", "pbkdf2;aa;bb;200000;")
	require.ErrorIs(t, err, errs.ErrUsernameTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	lastLogin := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`user_get_by_username`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "user_username", "user_password", "user_last_login"}).
			AddRow(int64(7), "alice", "pbkdf2;aa;bb;200000;", &lastLogin))
	u, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, "alice", u.Username)
	require.NotNil(t, u.LastLogin)

	mock.ExpectQuery(`user_get_by_username`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, errs.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	mock.ExpectQuery(`user_get_by_id`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "user_username", "user_password", "user_last_login"}).
			AddRow(int64(7), "alice", "pbkdf2;aa;bb;200000;", nil))
	u, err := r.GetByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Nil(t, u.LastLogin)

	mock.ExpectQuery(`user_get_by_id`).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, 8)
	require.ErrorIs(t, err, errs.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UsernameTaken(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	mock.ExpectQuery(`user_is_username_taken`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	taken, err := r.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	require.True(t, taken)

	mock.ExpectQuery(`user_is_username_taken`).
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	taken, err = r.UsernameTaken(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	mock.ExpectExec(`user_update_password`).
		WithArgs(int64(7), "pbkdf2;cc;dd;200000;").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdatePassword(ctx, 7, "pbkdf2;cc;dd;200000;"))

	mock.ExpectExec(`user_update_password`).
		WithArgs(int64(8), "pbkdf2;cc;dd;200000;").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := r.UpdatePassword(ctx, 8, "pbkdf2;cc;dd;200000;")
	require.ErrorIs(t, err, errs.ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_TouchLastLogin(t *testing.T) {
	p, mock := newTestPool(t)
	defer mock.Close()
	r := NewUserRepo(p)
	ctx := context.Background()

	mock.ExpectExec(`user_touch_last_login`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.TouchLastLogin(ctx, 7))

	require.NoError(t, mock.ExpectationsWereMet())
}
