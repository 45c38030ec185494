// AngelaMos | 2026
// handler.go

package portfolio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the public portfolio view and the owner's
// management endpoints. Only programmers manage a portfolio.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireProgrammer)

			r.Get("/me", h.GetMe)
			r.Put("/me", h.UpsertMe)
			r.Delete("/me", h.DeleteMe)
			r.Post("/me/projects", h.CreateProject)
			r.Put("/me/projects/order", h.ReorderProjects)
			r.Put("/me/projects/{projectID}", h.UpdateProject)
			r.Delete("/me/projects/{projectID}", h.DeleteProject)
		})

		r.Get("/{userID}", h.Get)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToPortfolioResponse(v))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToPortfolioResponse(v))
}

func (h *Handler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	var req UpsertPortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.service.Upsert(r.Context(), middleware.GetUserID(r.Context()), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToPortfolioResponse(v))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.CreateProject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.toInput(),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.Created(w, ToProjectResponse(p))
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "projectID"),
		req.toInput(),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToProjectResponse(p))
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteProject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "projectID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) ReorderProjects(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	projects, err := h.service.ReorderProjects(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.ProjectIDs,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToProjectResponseList(projects))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "portfolio")
		return
	}
	core.JSONError(w, err)
}
