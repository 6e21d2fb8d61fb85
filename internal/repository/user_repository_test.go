package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccc-church/evaluation-api/internal/models"
)

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(sqlx.NewDb(db, "sqlmock"))

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
		AddRow("u1", "admin", "$2a$10$hash", "admin", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	mock.ExpectQuery("SELECT id, username").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "volunteer1", PasswordHash: "hash", Role: models.RoleVolunteer}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
