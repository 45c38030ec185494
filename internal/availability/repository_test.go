// AngelaMos | 2026
// repository_test.go

package availability

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

const (
	ownerID = "3a4b5c6d-7e8f-4a1b-9c2d-3e4f5a6b7c8d"
	otherID = "5c6d7e8f-9a0b-4c1d-8e2f-3a4b5c6d7e8f"
	slotID  = "1f2e3d4c-5b6a-4978-8a6b-5c4d3e2f1a0b"
)

var stamp = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

var slotRowColumns = []string{
	"id", "programmer_id", "day_of_week", "start_time", "end_time",
	"modality", "enabled", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestRepositoryListByProgrammer(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)FROM availability_slots WHERE programmer_id = \$1 AND enabled = \$2 ORDER BY array_position\(ARRAY\['MONDAY', .+'SUNDAY'\]::text\[\], day_of_week::text\), start_time ASC`).
		WithArgs(ownerID, true).
		WillReturnRows(sqlmock.NewRows(slotRowColumns).
			AddRow(slotID, ownerID, "MONDAY", "09:00", "11:00", "VIRTUAL", true, stamp, stamp))

	slots, err := repo.ListByProgrammer(context.Background(), ownerID, true)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, Monday, slots[0].Day)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, Virtual, slots[0].Modality)

	mock.ExpectQuery(`FROM availability_slots WHERE programmer_id = \$1 ORDER BY`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows(slotRowColumns))

	slots, err = repo.ListByProgrammer(context.Background(), ownerID, false)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = repo.ListByProgrammer(context.Background(), "nobody", false)
	require.NoError(t, err)
	assert.Empty(t, slots)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetIsScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM availability_slots WHERE id = \$1 AND programmer_id = \$2`).
		WithArgs(slotID, otherID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), otherID, slotID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.Get(context.Background(), ownerID, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateMapsConstraints(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "duplicate start", dbErr: &pgconn.PgError{Code: "23505"}, wantErr: core.ErrDuplicateKey},
		{name: "reversed window", dbErr: &pgconn.PgError{Code: "23514"}, wantErr: core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(`INSERT INTO availability_slots \(id,programmer_id,day_of_week,start_time,end_time,modality,enabled\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\) RETURNING created_at, updated_at`).
				WillReturnError(tt.dbErr)

			err := repo.Create(context.Background(), &Slot{
				ID: slotID, ProgrammerID: ownerID, Day: Friday,
				StartTime: "10:00", EndTime: "12:00", Modality: Hybrid, Enabled: true,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO availability_slots`).
		WithArgs(slotID, ownerID, Friday, "10:00", "12:00", Hybrid, true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(stamp, stamp))

	s := &Slot{
		ID: slotID, ProgrammerID: ownerID, Day: Friday,
		StartTime: "10:00", EndTime: "12:00", Modality: Hybrid, Enabled: true,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, stamp, s.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateOtherOwnersSlot(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)UPDATE availability_slots SET .+updated_at = NOW\(\) WHERE id = \$6 AND programmer_id = \$7 RETURNING updated_at`).
		WithArgs(Tuesday, "08:00", "09:00", InPerson, false, slotID, otherID).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &Slot{
		ID: slotID, ProgrammerID: otherID, Day: Tuesday,
		StartTime: "08:00", EndTime: "09:00", Modality: InPerson,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM availability_slots WHERE id = \$1 AND programmer_id = \$2`).
		WithArgs(slotID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), ownerID, slotID))

	mock.ExpectExec(`DELETE FROM availability_slots`).
		WithArgs(slotID, otherID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), otherID, slotID), core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
