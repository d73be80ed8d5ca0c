package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/middleware"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/repository"
	"github.com/iliyamo/rental-contracts/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{JWTSecret: "s3cret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), quietLogger()), mock
}

func TestRegisterIssuesTokens(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("an@example.com", sqlmock.AnyArg(), contract.RoleLandlord).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(uint64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := call(t, h.Register, http.MethodPost, "/v1/auth/register",
		`{"email":" An@Example.com ","password":"matkhau123","role":"landlord"}`, 0, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userPart{ID: 5, Email: "an@example.com", Role: contract.RoleLandlord}, resp.User)

	claims, err := middleware.ParseAccessToken("s3cret", resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, float64(5), claims["sub"])
	assert.Equal(t, contract.RoleLandlord, claims["role"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	h, mock := newAuthHandler(t)
	rec := call(t, h.Register, http.MethodPost, "/v1/auth/register", `{"email":"an@example.com","password":"123"}`, 0, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.CodeValidation, envelope(t, rec).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("matkhau123", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(uint64(9), "binh@example.com", hash, contract.RoleTenant, true, now, now)
	}

	t.Run("ok", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("binh@example.com").WillReturnRows(userRow())
		mock.ExpectExec(`INSERT INTO refresh_tokens`).WillReturnResult(sqlmock.NewResult(1, 1))

		rec := call(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"binh@example.com","password":"matkhau123"}`, 0, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery(`FROM users WHERE email=\?`).WillReturnRows(userRow())

		rec := call(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"binh@example.com","password":"sai"}`, 0, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, model.CodeUnauthorized, envelope(t, rec).Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery(`FROM users WHERE email=\?`).WillReturnError(sql.ErrNoRows)

		rec := call(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"x@example.com","password":"sai"}`, 0, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutNeedsCredentials(t *testing.T) {
	h, _ := newAuthHandler(t)
	rec := call(t, h.Logout, http.MethodPost, "/v1/auth/logout", `{}`, 0, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
