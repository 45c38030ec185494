// AngelaMos | 2026
// repository.go

package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Portfolio, error)
	Upsert(ctx context.Context, p *Portfolio) error
	DeleteByUserID(ctx context.Context, userID string) error
	ListProjects(ctx context.Context, portfolioID string) ([]Project, error)
	GetProject(ctx context.Context, portfolioID, projectID string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	SetProjectPosition(ctx context.Context, portfolioID, projectID string, position int) error
	DeleteProject(ctx context.Context, portfolioID, projectID string) error
	ProjectsByUser(ctx context.Context, userID string) ([]UserProjects, error)
}

const portfolioColumns = `id, user_id, skills, availability_days,
		to_char(availability_start, 'HH24:MI') AS availability_start,
		to_char(availability_end, 'HH24:MI') AS availability_end,
		created_at, updated_at`

const projectColumns = `id, portfolio_id, title, description, repository_url,
		demo_url, technologies, position, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*Portfolio, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("get portfolio: %w", core.ErrNotFound)
	}

	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE user_id = $1`

	var p Portfolio
	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get portfolio: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get portfolio: %w", err)
	}

	return &p, nil
}

// Upsert creates the user's portfolio or replaces its fields, keeping the
// existing id so projects stay attached.
func (r *repository) Upsert(ctx context.Context, p *Portfolio) error {
	query := `
		INSERT INTO portfolios (id, user_id, skills, availability_days,
		                        availability_start, availability_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET skills = EXCLUDED.skills,
		    availability_days = EXCLUDED.availability_days,
		    availability_start = EXCLUDED.availability_start,
		    availability_end = EXCLUDED.availability_end,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.UserID,
		p.Skills,
		p.AvailabilityDays,
		p.AvailabilityStart,
		p.AvailabilityEnd,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsCheckViolation(err) {
			return fmt.Errorf("upsert portfolio: %w", core.ErrInvalidInput)
		}
		return fmt.Errorf("upsert portfolio: %w", err)
	}

	return nil
}

func (r *repository) DeleteByUserID(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	return expectOne(result, "delete portfolio")
}

func (r *repository) ListProjects(ctx context.Context, portfolioID string) ([]Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE portfolio_id = $1
		ORDER BY position ASC, created_at ASC`

	projects := []Project{}
	if err := r.db.SelectContext(ctx, &projects, query, portfolioID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (r *repository) GetProject(
	ctx context.Context,
	portfolioID, projectID string,
) (*Project, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, fmt.Errorf("get project: %w", core.ErrNotFound)
	}

	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1 AND portfolio_id = $2`

	var p Project
	err := r.db.GetContext(ctx, &p, query, projectID, portfolioID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &p, nil
}

func (r *repository) CreateProject(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (id, portfolio_id, title, description,
		                      repository_url, demo_url, technologies, position)
		SELECT $1, $2, $3, $4, $5, $6, $7, COALESCE(MAX(position) + 1, 0)
		FROM projects WHERE portfolio_id = $2
		RETURNING position, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.PortfolioID,
		p.Title,
		p.Description,
		p.RepositoryURL,
		p.DemoURL,
		p.Technologies,
	).Scan(&p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

func (r *repository) UpdateProject(ctx context.Context, p *Project) error {
	query := `
		UPDATE projects
		SET title = $3, description = $4, repository_url = $5, demo_url = $6,
		    technologies = $7, updated_at = NOW()
		WHERE id = $1 AND portfolio_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.PortfolioID,
		p.Title,
		p.Description,
		p.RepositoryURL,
		p.DemoURL,
		p.Technologies,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update project: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

func (r *repository) SetProjectPosition(
	ctx context.Context,
	portfolioID, projectID string,
	position int,
) error {
	query := `
		UPDATE projects
		SET position = $3, updated_at = NOW()
		WHERE id = $1 AND portfolio_id = $2`

	result, err := r.db.ExecContext(ctx, query, projectID, portfolioID, position)
	if err != nil {
		return fmt.Errorf("reorder project: %w", err)
	}
	return expectOne(result, "reorder project")
}

func (r *repository) DeleteProject(ctx context.Context, portfolioID, projectID string) error {
	if _, err := uuid.Parse(projectID); err != nil {
		return fmt.Errorf("delete project: %w", core.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1 AND portfolio_id = $2`,
		projectID, portfolioID,
	)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOne(result, "delete project")
}

func (r *repository) ProjectsByUser(ctx context.Context, userID string) ([]UserProjects, error) {
	q := psql.Select(
		"u.id AS user_id",
		"u.display_name",
		"u.email",
		"COUNT(pr.id) AS total_projects",
	).
		From("users u").
		Join("portfolios p ON p.user_id = u.id").
		LeftJoin("projects pr ON pr.portfolio_id = p.id").
		Where(sq.Eq{"u.deleted_at": nil})

	if userID != "" {
		q = q.Where(sq.Eq{"u.id": userID})
	}

	query, args, err := q.
		GroupBy("u.id", "u.display_name", "u.email").
		OrderBy("total_projects DESC", "u.display_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build projects by user: %w", err)
	}

	out := []UserProjects{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("projects by user: %w", err)
	}
	return out, nil
}

func expectOne(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

