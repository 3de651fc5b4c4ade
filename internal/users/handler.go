package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
)

// Handler wires HTTP endpoints for user management.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/availableUsers", h.listActive)
	r.Get("/usersRank/{rank}", h.listByRank)
	r.Get("/workingLessThan/{hours}", h.listByMaxWeeklyHours)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Put("/{id}", h.replace)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.delete)
	r.Patch("/{userId}/addNewTask/{taskId}", h.assignTask)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.List(r.Context(), page)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.ListActive(r.Context(), page)
	if err != nil {
		h.logger.Error("list active users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listByRank(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.ListByRank(r.Context(), chi.URLParam(r, "rank"), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listByMaxWeeklyHours(w http.ResponseWriter, r *http.Request) {
	hours, err := strconv.ParseInt(chi.URLParam(r, "hours"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid hours value", httpx.ErrValidation))
		return
	}
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.ListByMaxWeeklyHours(r.Context(), hours, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r, "id")
	if !ok {
		return
	}
	dto, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dto)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	if err := validateDTO(h.validate, dto); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r, "id")
	if !ok {
		return
	}
	var dto UserDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	if err := validateDTO(h.validate, dto); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Replace(r.Context(), id, dto)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r, "id")
	if !ok {
		return
	}
	var dto UserDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	updated, err := h.service.Patch(r.Context(), id, dto)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, "userId")
	if !ok {
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid task id", httpx.ErrValidation))
		return
	}
	updated, err := h.service.AssignTask(r.Context(), userID, taskID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}
