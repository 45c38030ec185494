// AngelaMos | 2026
// reports.go

package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carterperez-dev/advisory-backend/internal/advisory"
	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/portfolio"
)

type AdvisoryReports interface {
	ReportByStatus(ctx context.Context, f advisory.ReportFilter) ([]advisory.StatusCount, error)
	ReportByProgrammer(ctx context.Context, f advisory.ReportFilter) ([]advisory.ProgrammerCount, error)
	ReportByDate(ctx context.Context, f advisory.ReportFilter) ([]advisory.DateCount, error)
	Dashboard(ctx context.Context, f advisory.ReportFilter) (*advisory.Dashboard, error)
}

type ProjectReports interface {
	ProjectsByUser(ctx context.Context, userID string) ([]portfolio.UserProjects, error)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := parseReportFilter(w, r)
	if !ok {
		return
	}
	d, err := h.advisories.Dashboard(r.Context(), f)
	writeReport(w, d, err)
}

func (h *Handler) GetAdvisoriesByStatus(w http.ResponseWriter, r *http.Request) {
	f, ok := parseReportFilter(w, r)
	if !ok {
		return
	}
	out, err := h.advisories.ReportByStatus(r.Context(), f)
	writeReport(w, out, err)
}

func (h *Handler) GetAdvisoriesByProgrammer(w http.ResponseWriter, r *http.Request) {
	f, ok := parseReportFilter(w, r)
	if !ok {
		return
	}
	out, err := h.advisories.ReportByProgrammer(r.Context(), f)
	writeReport(w, out, err)
}

func (h *Handler) GetAdvisoriesByDate(w http.ResponseWriter, r *http.Request) {
	f, ok := parseReportFilter(w, r)
	if !ok {
		return
	}
	out, err := h.advisories.ReportByDate(r.Context(), f)
	writeReport(w, out, err)
}

func (h *Handler) GetProjectsByUser(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.ProjectsByUser(r.Context(), r.URL.Query().Get("user_id"))
	writeReport(w, out, err)
}

// parseReportFilter reads start_date, end_date, programmer_id and status.
// Dates are inclusive calendar days.
func parseReportFilter(w http.ResponseWriter, r *http.Request) (advisory.ReportFilter, bool) {
	q := r.URL.Query()
	f := advisory.ReportFilter{
		ProgrammerID: q.Get("programmer_id"),
		Status:       advisory.Status(q.Get("status")),
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{
		{"start_date", &f.StartDate},
		{"end_date", &f.EndDate},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		day, err := time.Parse(advisory.DateLayout, raw)
		if err != nil {
			core.BadRequest(w, p.key+" must be YYYY-MM-DD")
			return f, false
		}
		*p.dst = &day
	}

	return f, true
}

func writeReport(w http.ResponseWriter, data any, err error) {
	if err == nil {
		core.OK(w, data)
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "report")
		return
	}
	core.JSONError(w, err)
}
