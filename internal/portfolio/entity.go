// AngelaMos | 2026
// entity.go

package portfolio

import (
	"time"

	"github.com/lib/pq"
)

// Portfolio is owned by exactly one user and owns its projects; deleting it
// deletes them.
type Portfolio struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	Skills            pq.StringArray `db:"skills"`
	AvailabilityDays  string         `db:"availability_days"`
	AvailabilityStart *string        `db:"availability_start"`
	AvailabilityEnd   *string        `db:"availability_end"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type Project struct {
	ID            string         `db:"id"`
	PortfolioID   string         `db:"portfolio_id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	RepositoryURL string         `db:"repository_url"`
	DemoURL       string         `db:"demo_url"`
	Technologies  pq.StringArray `db:"technologies"`
	Position      int            `db:"position"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type UserProjects struct {
	UserID        string `db:"user_id"        json:"user_id"`
	DisplayName   string `db:"display_name"   json:"user_name"`
	Email         string `db:"email"          json:"email"`
	TotalProjects int    `db:"total_projects" json:"total_projects"`
}
