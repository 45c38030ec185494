// AngelaMos | 2026
// repository_test.go

package advisory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

const advisoryID = "5b8f0c2e-9d41-4e7a-b3c6-0f1e2d3c4b5a"

var advisoryRowColumns = []string{
	"id", "programmer_id", "client_id", "scheduled_date", "scheduled_time",
	"comment", "status", "response_msg", "responded_at", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func advisoryRow(status Status, msg any, respondedAt any) *sqlmock.Rows {
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(advisoryRowColumns).AddRow(
		advisoryID, "p-1", "c-1", day, "10:00",
		"need help", string(status), msg, respondedAt, fixedNow, fixedNow,
	)
}

func TestRepositoryCreateAdvisory(t *testing.T) {
	repo, mock := newMockRepo(t)
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	a := &Advisory{
		ID:           advisoryID,
		ProgrammerID: "p-1",
		ClientID:     "c-1",
		Date:         day,
		Time:         "10:00",
		Comment:      "need help",
		Status:       StatusPending,
	}

	mock.ExpectQuery(`INSERT INTO advisories`).
		WithArgs(advisoryID, "p-1", "c-1", day, "10:00", "need help", StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(fixedNow, fixedNow))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, fixedNow, a.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetAdvisory(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM advisories a WHERE a.id = \$1`).
		WithArgs(advisoryID).
		WillReturnRows(advisoryRow(StatusPending, nil, nil))

	a, err := repo.GetByID(context.Background(), advisoryID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, "10:00", a.Time)
	assert.Nil(t, a.ResponseMsg)

	mock.ExpectQuery(`FROM advisories a WHERE a.id = \$1`).
		WithArgs(advisoryID).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), advisoryID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRespondCompareAndSet(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := fixedNow

	mock.ExpectQuery(`(?s)UPDATE advisories a\s+SET status = \$2.+WHERE a.id = \$1 AND a.status = \$5`).
		WithArgs(advisoryID, StatusApproved, "sure", at, StatusPending).
		WillReturnRows(advisoryRow(StatusApproved, "sure", at))

	a, err := repo.Respond(context.Background(), advisoryID, StatusApproved, "sure", at)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, a.Status)
	require.NotNil(t, a.ResponseMsg)
	assert.Equal(t, "sure", *a.ResponseMsg)

	mock.ExpectQuery(`UPDATE advisories a`).
		WithArgs(advisoryID, StatusRejected, "no", at, StatusPending).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Respond(context.Background(), advisoryID, StatusRejected, "no", at)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByParticipant(t *testing.T) {
	tests := []struct {
		name   string
		filter ListFilter
		where  string
		args   []any
	}{
		{
			name:   "client",
			filter: ListFilter{UserID: "c-1", Role: RoleClient},
			where:  `WHERE a.client_id = \$1 ORDER BY`,
			args:   []any{"c-1"},
		},
		{
			name:   "programmer with status",
			filter: ListFilter{UserID: "p-1", Role: RoleProgrammer, Status: StatusPending},
			where:  `WHERE a.programmer_id = \$1 AND a.status = \$2 ORDER BY`,
			args:   []any{"p-1", StatusPending},
		},
		{
			name:   "any",
			filter: ListFilter{UserID: "u-1", Role: RoleAny},
			where:  `WHERE \(a.client_id = \$1 OR a.programmer_id = \$2\) ORDER BY`,
			args:   []any{"u-1", "u-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			args := make([]driver.Value, 0, len(tt.args))
			for _, a := range tt.args {
				args = append(args, a)
			}

			mock.ExpectQuery(tt.where + ` a.scheduled_date ASC, a.scheduled_time ASC, a.id ASC`).
				WithArgs(args...).
				WillReturnRows(advisoryRow(StatusPending, nil, nil))

			got, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, 1)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryListEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM advisories a WHERE`).
		WillReturnRows(sqlmock.NewRows(advisoryRowColumns))

	got, err := repo.List(context.Background(), ListFilter{UserID: "c-1", Role: RoleClient})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepositoryReports(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT a.status, COUNT\(\*\) AS count FROM advisories a WHERE a.scheduled_date >= \$1 AND a.status = \$2 GROUP BY a.status`).
		WithArgs(start, StatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("APPROVED", 3))

	byStatus, err := repo.CountByStatus(context.Background(), ReportFilter{
		StartDate: &start,
		Status:    StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{{Status: StatusApproved, Count: 3}}, byStatus)

	mock.ExpectQuery(`JOIN users u ON u.id = a.programmer_id WHERE a.programmer_id = \$1 GROUP BY`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"programmer_id", "display_name", "count"}).
			AddRow("p-1", "Grace", 2))

	byProgrammer, err := repo.CountByProgrammer(context.Background(), ReportFilter{ProgrammerID: "p-1"})
	require.NoError(t, err)
	require.Len(t, byProgrammer, 1)
	assert.Equal(t, "Grace", byProgrammer[0].DisplayName)

	mock.ExpectQuery(`GROUP BY a.scheduled_date ORDER BY a.scheduled_date ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"scheduled_date", "count"}).
			AddRow("2026-03-11", 4))

	byDate, err := repo.CountByDate(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, []DateCount{{Date: "2026-03-11", Count: 4}}, byDate)

	require.NoError(t, mock.ExpectationsWereMet())
}
