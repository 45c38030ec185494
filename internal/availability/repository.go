// AngelaMos | 2026
// repository.go

package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type Repository interface {
	ListByProgrammer(ctx context.Context, programmerID string, enabledOnly bool) ([]Slot, error)
	Get(ctx context.Context, programmerID, slotID string) (*Slot, error)
	Create(ctx context.Context, s *Slot) error
	Update(ctx context.Context, s *Slot) error
	Delete(ctx context.Context, programmerID, slotID string) error
}

var slotColumns = []string{
	"id",
	"programmer_id",
	"day_of_week",
	"to_char(start_time, 'HH24:MI') AS start_time",
	"to_char(end_time, 'HH24:MI') AS end_time",
	"modality",
	"enabled",
	"created_at",
	"updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// weekOrder sorts day_of_week Monday first.
var weekOrder = func() string {
	names := make([]string, len(Week))
	for i, d := range Week {
		names[i] = "'" + string(d) + "'"
	}
	return "array_position(ARRAY[" + strings.Join(names, ", ") + "]::text[], day_of_week::text)"
}()

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListByProgrammer(
	ctx context.Context,
	programmerID string,
	enabledOnly bool,
) ([]Slot, error) {
	out := []Slot{}
	if _, err := uuid.Parse(programmerID); err != nil {
		return out, nil
	}

	q := psql.Select(slotColumns...).
		From("availability_slots").
		Where(sq.Eq{"programmer_id": programmerID})
	if enabledOnly {
		q = q.Where(sq.Eq{"enabled": true})
	}

	query, args, err := q.OrderBy(weekOrder, "start_time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slots: %w", err)
	}

	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return out, nil
}

// Get only finds slots owned by programmerID, so another user's slot reads
// as missing.
func (r *repository) Get(ctx context.Context, programmerID, slotID string) (*Slot, error) {
	if _, err := uuid.Parse(slotID); err != nil {
		return nil, fmt.Errorf("get slot: %w", core.ErrNotFound)
	}

	query, args, err := psql.Select(slotColumns...).
		From("availability_slots").
		Where(sq.Eq{"id": slotID, "programmer_id": programmerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get slot: %w", err)
	}

	var s Slot
	err = r.db.GetContext(ctx, &s, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get slot: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return &s, nil
}

func (r *repository) Create(ctx context.Context, s *Slot) error {
	query, args, err := psql.Insert("availability_slots").
		Columns("id", "programmer_id", "day_of_week", "start_time", "end_time",
			"modality", "enabled").
		Values(s.ID, s.ProgrammerID, s.Day, s.StartTime, s.EndTime, s.Modality, s.Enabled).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create slot: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
	return constraintError("create slot", err)
}

func (r *repository) Update(ctx context.Context, s *Slot) error {
	query, args, err := psql.Update("availability_slots").
		Set("day_of_week", s.Day).
		Set("start_time", s.StartTime).
		Set("end_time", s.EndTime).
		Set("modality", s.Modality).
		Set("enabled", s.Enabled).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": s.ID, "programmer_id": s.ProgrammerID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update slot: %w", err)
	}

	err = r.db.GetContext(ctx, &s.UpdatedAt, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update slot: %w", core.ErrNotFound)
	}
	return constraintError("update slot", err)
}

func (r *repository) Delete(ctx context.Context, programmerID, slotID string) error {
	if _, err := uuid.Parse(slotID); err != nil {
		return fmt.Errorf("delete slot: %w", core.ErrNotFound)
	}

	query, args, err := psql.Delete("availability_slots").
		Where(sq.Eq{"id": slotID, "programmer_id": programmerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete slot: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete slot: %w", core.ErrNotFound)
	}
	return nil
}

func constraintError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case core.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	case core.IsCheckViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
