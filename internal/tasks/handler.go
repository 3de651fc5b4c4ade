package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
)

// Handler wires HTTP endpoints for task management.
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

// MountRoutes registers task routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/availableTasks", h.listAvailable)
	r.Get("/taskType/{taskType}", h.listByType)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Put("/{id}", h.replace)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.List(r.Context(), page)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	key := fmt.Sprintf("available:%d:%d", page.Page, page.Size)
	value, err := singleflightList(r.Context(), key, func(ctx context.Context) (any, error) {
		return h.service.ListAvailable(ctx, page)
	})
	if err != nil {
		h.logger.Error("list available tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

func (h *Handler) listByType(w http.ResponseWriter, r *http.Request) {
	page := shared.PageRequestFromQuery(r)
	result, err := h.service.ListByType(r.Context(), chi.URLParam(r, "taskType"), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
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
	var dto TaskDTO
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
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var dto TaskDTO
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
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var dto TaskDTO
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
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid task id", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}
