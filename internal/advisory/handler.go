// AngelaMos | 2026
// handler.go

package advisory

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
	manager   *Manager
	validator *validator.Validate
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager:   manager,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the advisory endpoints. bookingLimit wraps only the
// creation route.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, bookingLimit func(http.Handler) http.Handler,
) {
	r.Route("/advisories", func(r chi.Router) {
		r.Use(authenticator)

		if bookingLimit != nil {
			r.With(bookingLimit).Post("/", h.Create)
		} else {
			r.Post("/", h.Create)
		}
		r.Get("/", h.List)
		r.Get("/{advisoryID}", h.Get)
		r.Post("/{advisoryID}/respond", h.Respond)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.manager.Request(r.Context(), RequestInput{
		ClientID:     middleware.GetUserID(r.Context()),
		ProgrammerID: req.ProgrammerID,
		Date:         req.Date,
		Time:         req.Time,
		Comment:      req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToAdvisoryResponse(a))
}

func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	a, err := h.manager.Respond(r.Context(), RespondInput{
		AdvisoryID:   chi.URLParam(r, "advisoryID"),
		ActingUserID: middleware.GetUserID(r.Context()),
		Decision:     req.Decision,
		Message:      req.ResponseMessage,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToAdvisoryResponse(a))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	role, ok := ParseRoleFilter(r.URL.Query().Get("role"))
	if !ok {
		core.BadRequest(w, "role must be one of client, programmer, any")
		return
	}

	status := Status(r.URL.Query().Get("status"))

	advisories, err := h.manager.List(
		r.Context(),
		middleware.GetUserID(r.Context()),
		role,
		status,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToAdvisoryResponseList(advisories))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.manager.Get(
		r.Context(),
		chi.URLParam(r, "advisoryID"),
		middleware.GetUserID(r.Context()),
		middleware.IsAdmin(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToAdvisoryResponse(a))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidParticipants):
		core.JSONError(w, core.NewAppError(
			err,
			"programmer and client must be two distinct existing users",
			http.StatusUnprocessableEntity,
			"INVALID_PARTICIPANTS",
		))
	case errors.Is(err, ErrInvalidSchedule):
		core.JSONError(w, core.NewAppError(
			err,
			"advisory must be scheduled in the future",
			http.StatusUnprocessableEntity,
			"INVALID_SCHEDULE",
		))
	case errors.Is(err, ErrInvalidState):
		core.JSONError(w, core.ConflictError(
			"advisory has already been answered",
			"INVALID_STATE",
		))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "advisory")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "not allowed to act on this advisory")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.JSONError(w, err)
	}
}
