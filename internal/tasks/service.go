package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/crewtrack/crewtrack/internal/platform/cache"
	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
)

// Service orchestrates repository and mapper calls for tasks.
type Service struct {
	repo   Repository
	cache  *cache.Versioned
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service. The cache and audit logger are optional.
func NewService(repo Repository, listCache *cache.Versioned, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: listCache, audit: audit, logger: logger}
}

// List returns one page of all tasks.
func (s *Service) List(ctx context.Context, page shared.PageRequest) (shared.Page[TaskDTO], error) {
	return s.cachedList(ctx, []string{"list"}, page, func(ctx context.Context) ([]Task, int, error) {
		return s.repo.List(ctx, page)
	})
}

// ListAvailable returns tasks whose state is not COMPLETED.
func (s *Service) ListAvailable(ctx context.Context, page shared.PageRequest) (shared.Page[TaskDTO], error) {
	return s.cachedList(ctx, []string{"available"}, page, func(ctx context.Context) ([]Task, int, error) {
		return s.repo.ListByStateNot(ctx, StateCompleted, page)
	})
}

// ListByType returns tasks of the given type literal.
func (s *Service) ListByType(ctx context.Context, rawType string, page shared.PageRequest) (shared.Page[TaskDTO], error) {
	taskType, err := ParseType(rawType)
	if err != nil {
		return shared.Page[TaskDTO]{}, err
	}
	return s.cachedList(ctx, []string{"type", string(taskType)}, page, func(ctx context.Context) ([]Task, int, error) {
		return s.repo.ListByType(ctx, taskType, page)
	})
}

// Get fetches a single task by id.
func (s *Service) Get(ctx context.Context, id int64) (TaskDTO, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return TaskDTO{}, err
	}
	return ToDTO(task), nil
}

// Create inserts a new task and returns it with the assigned id.
func (s *Service) Create(ctx context.Context, dto TaskDTO) (TaskDTO, error) {
	task, err := toTask(dto)
	if err != nil {
		return TaskDTO{}, err
	}
	task.ID = 0
	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return TaskDTO{}, err
	}
	s.recordAudit(ctx, "task.created", created.ID, map[string]any{"name": created.Name})
	s.bumpCache(ctx)
	return ToDTO(created), nil
}

// Replace performs a full-field overwrite of an existing task.
func (s *Service) Replace(ctx context.Context, id int64, dto TaskDTO) (TaskDTO, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return TaskDTO{}, err
	}
	task, err := toTask(dto)
	if err != nil {
		return TaskDTO{}, err
	}
	if err := s.repo.Update(ctx, id, task); err != nil {
		return TaskDTO{}, err
	}
	s.recordAudit(ctx, "task.replaced", id, nil)
	s.bumpCache(ctx)
	return s.Get(ctx, id)
}

// Patch applies a sparse merge: only fields present on the transfer object
// overwrite the stored entity.
func (s *Service) Patch(ctx context.Context, id int64, dto TaskDTO) (TaskDTO, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return TaskDTO{}, err
	}
	if err := applyPartial(dto, &task); err != nil {
		return TaskDTO{}, err
	}
	if err := s.repo.Update(ctx, id, task); err != nil {
		return TaskDTO{}, err
	}
	s.recordAudit(ctx, "task.patched", id, nil)
	s.bumpCache(ctx)
	return s.Get(ctx, id)
}

// Delete removes a task by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "task.deleted", id, nil)
	s.bumpCache(ctx)
	return nil
}

func (s *Service) cachedList(ctx context.Context, keyParts []string, page shared.PageRequest, load func(context.Context) ([]Task, int, error)) (shared.Page[TaskDTO], error) {
	var result shared.Page[TaskDTO]
	parts := append(keyParts, strconv.Itoa(page.Page), strconv.Itoa(page.Size))
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return result, err
	}
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		items, total, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return shared.NewPage(ToDTOs(items), page, total), nil
	})
	return result, err
}

func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump task list cache", slog.Any("error", err))
	}
}

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, httpx.ErrNotFound)
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{Action: action, Entity: "task", EntityID: strconv.FormatInt(id, 10), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
