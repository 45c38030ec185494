// AngelaMos | 2026
// repository.go

package advisory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Advisory) error
	GetByID(ctx context.Context, id string) (*Advisory, error)
	Respond(
		ctx context.Context,
		id string,
		status Status,
		message string,
		at time.Time,
	) (*Advisory, error)
	List(ctx context.Context, f ListFilter) ([]Advisory, error)
	CountByStatus(ctx context.Context, f ReportFilter) ([]StatusCount, error)
	CountByProgrammer(ctx context.Context, f ReportFilter) ([]ProgrammerCount, error)
	CountByDate(ctx context.Context, f ReportFilter) ([]DateCount, error)
	Totals(ctx context.Context) (*Totals, error)
}

type ListFilter struct {
	UserID string
	Role   RoleFilter
	Status Status
}

type ReportFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	ProgrammerID string
	Status       Status
}

type StatusCount struct {
	Status Status `db:"status"  json:"status"`
	Count  int    `db:"count"   json:"count"`
}

type ProgrammerCount struct {
	ProgrammerID string `db:"programmer_id" json:"programmer_id"`
	DisplayName  string `db:"display_name"  json:"programmer_name"`
	Count        int    `db:"count"         json:"count"`
}

type DateCount struct {
	Date  string `db:"scheduled_date" json:"date"`
	Count int    `db:"count"          json:"count"`
}

type Totals struct {
	Advisories  int `db:"advisories"  json:"total_advisories"`
	Programmers int `db:"programmers" json:"total_programmers"`
	Users       int `db:"users"       json:"total_users"`
}

const advisoryColumns = `a.id, a.programmer_id, a.client_id, a.scheduled_date,
		to_char(a.scheduled_time, 'HH24:MI') AS scheduled_time, a.comment,
		a.status, a.response_msg, a.responded_at, a.created_at, a.updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Advisory) error {
	query := `
		INSERT INTO advisories (id, programmer_id, client_id, scheduled_date,
		                        scheduled_time, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.ProgrammerID,
		a.ClientID,
		a.Date,
		a.Time,
		a.Comment,
		a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create advisory: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Advisory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get advisory: %w", core.ErrNotFound)
	}

	query := `SELECT ` + advisoryColumns + ` FROM advisories a WHERE a.id = $1`

	var a Advisory
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get advisory: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get advisory: %w", err)
	}

	return &a, nil
}

// Respond commits the status change only while the row is still PENDING.
// A concurrent responder that lost the race gets ErrInvalidState.
func (r *repository) Respond(
	ctx context.Context,
	id string,
	status Status,
	message string,
	at time.Time,
) (*Advisory, error) {
	query := `
		UPDATE advisories a
		SET status = $2, response_msg = $3, responded_at = $4, updated_at = NOW()
		WHERE a.id = $1 AND a.status = $5
		RETURNING ` + advisoryColumns

	var a Advisory
	err := r.db.GetContext(ctx, &a, query, id, status, message, at, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("respond advisory: %w", ErrInvalidState)
	}
	if err != nil {
		return nil, fmt.Errorf("respond advisory: %w", err)
	}

	return &a, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Advisory, error) {
	q := psql.Select(advisoryColumns).From("advisories a")

	switch f.Role {
	case RoleClient:
		q = q.Where(sq.Eq{"a.client_id": f.UserID})
	case RoleProgrammer:
		q = q.Where(sq.Eq{"a.programmer_id": f.UserID})
	default:
		q = q.Where(sq.Or{
			sq.Eq{"a.client_id": f.UserID},
			sq.Eq{"a.programmer_id": f.UserID},
		})
	}

	if f.Status != "" {
		q = q.Where(sq.Eq{"a.status": f.Status})
	}

	query, args, err := q.
		OrderBy("a.scheduled_date ASC", "a.scheduled_time ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list advisories: %w", err)
	}

	advisories := []Advisory{}
	if err := r.db.SelectContext(ctx, &advisories, query, args...); err != nil {
		return nil, fmt.Errorf("list advisories: %w", err)
	}

	return advisories, nil
}

func (r *repository) CountByStatus(
	ctx context.Context,
	f ReportFilter,
) ([]StatusCount, error) {
	q := applyReportFilter(
		psql.Select("a.status", "COUNT(*) AS count").From("advisories a"),
		f,
	).GroupBy("a.status").OrderBy("a.status")

	out := []StatusCount{}
	if err := r.selectReport(ctx, "count advisories by status", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CountByProgrammer(
	ctx context.Context,
	f ReportFilter,
) ([]ProgrammerCount, error) {
	q := applyReportFilter(
		psql.Select("a.programmer_id", "u.display_name", "COUNT(*) AS count").
			From("advisories a").
			Join("users u ON u.id = a.programmer_id"),
		f,
	).GroupBy("a.programmer_id", "u.display_name").
		OrderBy("count DESC", "u.display_name ASC")

	out := []ProgrammerCount{}
	if err := r.selectReport(ctx, "count advisories by programmer", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CountByDate(
	ctx context.Context,
	f ReportFilter,
) ([]DateCount, error) {
	q := applyReportFilter(
		psql.Select(
			"to_char(a.scheduled_date, 'YYYY-MM-DD') AS scheduled_date",
			"COUNT(*) AS count",
		).From("advisories a"),
		f,
	).GroupBy("a.scheduled_date").OrderBy("a.scheduled_date ASC")

	out := []DateCount{}
	if err := r.selectReport(ctx, "count advisories by date", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Totals(ctx context.Context) (*Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM advisories) AS advisories,
			(SELECT COUNT(*) FROM users
			  WHERE role = 'programmer' AND deleted_at IS NULL) AS programmers,
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS users`

	var t Totals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}
	return &t, nil
}

func (r *repository) selectReport(
	ctx context.Context,
	op string,
	q sq.SelectBuilder,
	dest any,
) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}

	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func applyReportFilter(q sq.SelectBuilder, f ReportFilter) sq.SelectBuilder {
	if f.StartDate != nil {
		q = q.Where(sq.GtOrEq{"a.scheduled_date": *f.StartDate})
	}
	if f.EndDate != nil {
		q = q.Where(sq.LtOrEq{"a.scheduled_date": *f.EndDate})
	}
	if f.ProgrammerID != "" {
		q = q.Where(sq.Eq{"a.programmer_id": f.ProgrammerID})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"a.status": f.Status})
	}
	return q
}
