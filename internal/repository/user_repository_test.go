package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("a@b.vn", sqlmock.AnyArg(), "LANDLORD").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	_, err = NewUserRepo(db).Create(context.Background(), " A@B.vn ", "secret", "LANDLORD", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("x@y.vn").WillReturnError(sql.ErrNoRows)

	_, err = NewUserRepo(db).GetByEmail(context.Background(), "X@y.vn")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenValidateRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewTokenRepo(db)
	r.Now = func() time.Time { return fixedNow }

	cols := []string{"user_id", "expires_at", "revoked_at"}
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(4), fixedNow.Add(time.Hour), nil))
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(4), fixedNow.Add(-time.Hour), nil))
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(4), fixedNow.Add(time.Hour), fixedNow))

	uid, err := r.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), uid)

	_, err = r.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRevokeUsesClock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewTokenRepo(db)
	r.Now = func() time.Time { return fixedNow }

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=\? WHERE token_hash=\?`).
		WithArgs(fixedNow, "h1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=\? WHERE user_id=\?`).
		WithArgs(fixedNow, uint64(4)).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, r.RevokeByHash(context.Background(), "h1"))
	require.NoError(t, r.RevokeAllForUser(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
