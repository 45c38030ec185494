// AngelaMos | 2026
// handler.go

package availability

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

// RegisterRoutes mounts the public weekly view of a programmer and the
// programmer's own slot management.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/availability", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireProgrammer)

			r.Get("/me", h.ListMine)
			r.Post("/", h.Create)
			r.Put("/{slotID}", h.Update)
			r.Delete("/{slotID}", h.Delete)
		})

		r.Get("/programmer/{userID}", h.ListPublic)
	})
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListPublic(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToSlotResponseList(slots))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToSlotResponseList(slots))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if !h.decode(w, r, &req) {
		return
	}

	slot, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	core.Created(w, ToSlotResponse(slot))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSlotRequest
	if !h.decode(w, r, &req) {
		return
	}

	slot, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "slotID"),
		req.toInput(),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToSlotResponse(slot))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "slotID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	core.NoContent(w)
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
		core.NotFound(w, "availability slot")
		return
	}
	core.JSONError(w, err)
}
