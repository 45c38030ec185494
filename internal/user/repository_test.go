// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

var userRowColumns = []string{
	"id", "email", "password_hash", "display_name", "photo_url", "specialty",
	"description", "role", "token_version", "created_at", "updated_at", "deleted_at",
}

const adaID = "7f0c1a52-4b7e-4a65-9a8c-1c2d3e4f5a6b"

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	u := &User{
		ID:           adaID,
		Email:        "ada@example.com",
		PasswordHash: "hash",
		DisplayName:  "Ada",
		Role:         RoleProgrammer,
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(adaID, "ada@example.com", "hash", "Ada", "", "", "", RoleProgrammer).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at", "token_version"}).
			AddRow(now, now, 0))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &User{ID: "u-2", Email: "ada@example.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(adaID).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			adaID, "ada@example.com", "hash", "Ada", "", "Go", "", RoleProgrammer,
			2, now, now, nil,
		))

	u, err := repo.GetByID(context.Background(), adaID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.Equal(t, "Go", u.Specialty)
	assert.Equal(t, 2, u.TokenVersion)
	assert.True(t, u.IsProgrammer())
	assert.False(t, u.IsDeleted())

	missing := "0d5e8a1c-2b3f-4c6d-8e9f-a0b1c2d3e4f5"
	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), missing)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySoftDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`SET deleted_at = NOW\(\)`).
		WithArgs(adaID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), adaID))

	mock.ExpectExec(`SET deleted_at = NOW\(\)`).
		WithArgs(adaID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SoftDelete(context.Background(), adaID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE`).
		WithArgs("%a\\_b%", "%a\\_b%", RoleProgrammer).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`FROM users WHERE .+ ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs("%a\\_b%", "%a\\_b%", RoleProgrammer).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			adaID, "a_b@example.com", "hash", "A B", "", "", "", RoleProgrammer,
			0, now, now, nil,
		))

	users, total, err := repo.List(context.Background(), ListUsersParams{
		Search: "a_b",
		Role:   RoleProgrammer,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, adaID, users[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	u := &User{ID: adaID, DisplayName: "Ada L", Specialty: "Go", Role: RoleProgrammer}

	mock.ExpectQuery(`UPDATE users SET display_name = \$1, .+ updated_at = NOW\(\) WHERE id = \$6 AND deleted_at IS NULL RETURNING updated_at`).
		WithArgs("Ada L", "", "Go", "", RoleProgrammer, adaID).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	require.NoError(t, repo.Update(context.Background(), u))
	assert.Equal(t, now, u.UpdatedAt)

	mock.ExpectQuery(`UPDATE users`).WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(context.Background(), u), core.ErrNotFound)

	mock.ExpectExec(`SET token_version = token_version \+ 1, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(adaID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.IncrementTokenVersion(context.Background(), adaID))

	mock.ExpectExec(`SET password_hash = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs("new-hash", adaID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdatePassword(context.Background(), adaID, "new-hash")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
