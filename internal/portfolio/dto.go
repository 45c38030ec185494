// AngelaMos | 2026
// dto.go

package portfolio

import (
	"time"
)

type UpsertPortfolioRequest struct {
	Skills            []string `json:"skills"             validate:"max=100,dive,max=200"`
	AvailabilityDays  string   `json:"availability_days"  validate:"max=120"`
	AvailabilityStart *string  `json:"availability_start"`
	AvailabilityEnd   *string  `json:"availability_end"`
}

type ProjectRequest struct {
	Title         string   `json:"title"          validate:"required,max=200"`
	Description   string   `json:"description"    validate:"max=4000"`
	RepositoryURL string   `json:"repository_url" validate:"omitempty,url,max=512"`
	DemoURL       string   `json:"demo_url"       validate:"omitempty,url,max=512"`
	Technologies  []string `json:"technologies"   validate:"max=100,dive,max=200"`
}

type ReorderRequest struct {
	ProjectIDs []string `json:"project_ids" validate:"required"`
}

type ProjectResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	RepositoryURL string    `json:"repository_url,omitempty"`
	DemoURL       string    `json:"demo_url,omitempty"`
	Technologies  []string  `json:"technologies"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PortfolioResponse struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Skills            []string          `json:"skills"`
	AvailabilityDays  string            `json:"availability_days,omitempty"`
	AvailabilityStart *string           `json:"availability_start,omitempty"`
	AvailabilityEnd   *string           `json:"availability_end,omitempty"`
	Projects          []ProjectResponse `json:"projects"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (r UpsertPortfolioRequest) toInput() UpsertInput {
	return UpsertInput{
		Skills:            r.Skills,
		AvailabilityDays:  r.AvailabilityDays,
		AvailabilityStart: r.AvailabilityStart,
		AvailabilityEnd:   r.AvailabilityEnd,
	}
}

func (r ProjectRequest) toInput() ProjectInput {
	return ProjectInput{
		Title:         r.Title,
		Description:   r.Description,
		RepositoryURL: r.RepositoryURL,
		DemoURL:       r.DemoURL,
		Technologies:  r.Technologies,
	}
}

func ToProjectResponse(p *Project) ProjectResponse {
	tech := []string(p.Technologies)
	if tech == nil {
		tech = []string{}
	}
	return ProjectResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		RepositoryURL: p.RepositoryURL,
		DemoURL:       p.DemoURL,
		Technologies:  tech,
		Position:      p.Position,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToProjectResponseList(projects []Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, ToProjectResponse(&projects[i]))
	}
	return out
}

func ToPortfolioResponse(v *View) PortfolioResponse {
	skills := []string(v.Portfolio.Skills)
	if skills == nil {
		skills = []string{}
	}
	return PortfolioResponse{
		ID:                v.Portfolio.ID,
		UserID:            v.Portfolio.UserID,
		Skills:            skills,
		AvailabilityDays:  v.Portfolio.AvailabilityDays,
		AvailabilityStart: v.Portfolio.AvailabilityStart,
		AvailabilityEnd:   v.Portfolio.AvailabilityEnd,
		Projects:          ToProjectResponseList(v.Projects),
		CreatedAt:         v.Portfolio.CreatedAt,
		UpdatedAt:         v.Portfolio.UpdatedAt,
	}
}
