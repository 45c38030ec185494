// AngelaMos | 2026
// handler.go

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves operator-facing pool statistics and the advisory and
// portfolio reports.
type Handler struct {
	pools      []Pool
	advisories AdvisoryReports
	projects   ProjectReports
	clients    func() int
}

type HandlerConfig struct {
	Pools      []Pool
	Advisories AdvisoryReports
	Projects   ProjectReports
	// Clients reports the number of open notification sockets.
	Clients func() int
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		pools:      cfg.Pools,
		advisories: cfg.Advisories,
		projects:   cfg.Projects,
		clients:    cfg.Clients,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.GetSystemStats)
			r.Get("/runtime", h.GetRuntimeStats)
			r.Get("/{pool}", h.GetPoolStats)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/advisories/by-status", h.GetAdvisoriesByStatus)
			r.Get("/advisories/by-programmer", h.GetAdvisoriesByProgrammer)
			r.Get("/advisories/by-date", h.GetAdvisoriesByDate)
			r.Get("/projects-by-user", h.GetProjectsByUser)
		})
	})
}
