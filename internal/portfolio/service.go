// AngelaMos | 2026
// service.go

package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

// TxRunner runs fn against a repository bound to a single transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

type sqlxTxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner {
	return &sqlxTxRunner{db: db}
}

func (r *sqlxTxRunner) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

type Service struct {
	repo   Repository
	tx     TxRunner
	logger *slog.Logger
}

func NewService(repo Repository, tx TxRunner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tx: tx, logger: logger}
}

// View is a portfolio together with its ordered projects.
type View struct {
	Portfolio *Portfolio
	Projects  []Project
}

type UpsertInput struct {
	Skills            []string
	AvailabilityDays  string
	AvailabilityStart *string
	AvailabilityEnd   *string
}

type ProjectInput struct {
	Title         string
	Description   string
	RepositoryURL string
	DemoURL       string
	Technologies  []string
}

func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	projects, err := s.repo.ListProjects(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &View{Portfolio: p, Projects: projects}, nil
}

func (s *Service) Upsert(ctx context.Context, userID string, in UpsertInput) (*View, error) {
	skills, err := NormalizeTags("skills", in.Skills, MaxSkills)
	if err != nil {
		return nil, err
	}

	start, end, err := NormalizeWindow(in.AvailabilityStart, in.AvailabilityEnd)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		ID:                uuid.New().String(),
		UserID:            userID,
		Skills:            skills,
		AvailabilityDays:  strings.TrimSpace(in.AvailabilityDays),
		AvailabilityStart: start,
		AvailabilityEnd:   end,
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	projects, err := s.repo.ListProjects(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("portfolio saved", "user_id", userID, "skills", len(skills))

	return &View{Portfolio: p, Projects: projects}, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("portfolio deleted", "user_id", userID)
	return nil
}

func (s *Service) CreateProject(
	ctx context.Context,
	userID string,
	in ProjectInput,
) (*Project, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	project, err := buildProject(p.ID, in)
	if err != nil {
		return nil, err
	}
	project.ID = uuid.New().String()

	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

func (s *Service) UpdateProject(
	ctx context.Context,
	userID, projectID string,
	in ProjectInput,
) (*Project, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetProject(ctx, p.ID, projectID)
	if err != nil {
		return nil, err
	}

	project, err := buildProject(p.ID, in)
	if err != nil {
		return nil, err
	}
	project.ID = current.ID
	project.Position = current.Position
	project.CreatedAt = current.CreatedAt

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

func (s *Service) DeleteProject(ctx context.Context, userID, projectID string) error {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, p.ID, projectID)
}

// ReorderProjects assigns positions in the given order. ids must name every
// project of the portfolio exactly once.
func (s *Service) ReorderProjects(
	ctx context.Context,
	userID string,
	ids []string,
) ([]Project, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []Project
	err = s.tx.WithinTx(ctx, func(repo Repository) error {
		projects, err := repo.ListProjects(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := sameProjectSet(projects, ids); err != nil {
			return err
		}

		for pos, id := range ids {
			if err := repo.SetProjectPosition(ctx, p.ID, id, pos); err != nil {
				return err
			}
		}

		out, err = repo.ListProjects(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reorder projects: %w", err)
	}

	return out, nil
}

// ProjectsByUser reports project counts per portfolio owner. An empty
// userID reports every owner.
func (s *Service) ProjectsByUser(ctx context.Context, userID string) ([]UserProjects, error) {
	return s.repo.ProjectsByUser(ctx, userID)
}

func buildProject(portfolioID string, in ProjectInput) (*Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, core.ValidationError("title is required")
	}

	tech, err := NormalizeTags("technologies", in.Technologies, MaxTechnologies)
	if err != nil {
		return nil, err
	}

	return &Project{
		PortfolioID:   portfolioID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		RepositoryURL: strings.TrimSpace(in.RepositoryURL),
		DemoURL:       strings.TrimSpace(in.DemoURL),
		Technologies:  tech,
	}, nil
}

func sameProjectSet(projects []Project, ids []string) error {
	if len(ids) != len(projects) {
		return core.ValidationError("order must list every project exactly once")
	}

	known := make(map[string]bool, len(projects))
	for _, p := range projects {
		known[p.ID] = false
	}
	for _, id := range ids {
		used, ok := known[id]
		if !ok || used {
			return core.ValidationError("order must list every project exactly once")
		}
		known[id] = true
	}
	return nil
}
