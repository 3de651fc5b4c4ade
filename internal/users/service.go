package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/crewtrack/crewtrack/internal/platform/cache"
	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
	"github.com/crewtrack/crewtrack/internal/tasks"
)

// AssignmentNotifier publishes a background notification after a task is
// assigned to a user. Delivery is best effort.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, userID, taskID int64, taskName string) error
}

// Service orchestrates repository and mapper calls for users, and holds the
// one business rule of the assignment path.
type Service struct {
	repo      Repository
	tasksRepo tasks.Repository
	cache     *cache.Versioned
	audit     *shared.AuditLogger
	notifier  AssignmentNotifier
	logger    *slog.Logger
}

// NewService builds a Service. Cache, audit logger and notifier are optional.
func NewService(repo Repository, tasksRepo tasks.Repository, listCache *cache.Versioned, audit *shared.AuditLogger, notifier AssignmentNotifier, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tasksRepo: tasksRepo,
		cache:     listCache,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
	}
}

// List returns one page of all users.
func (s *Service) List(ctx context.Context, page shared.PageRequest) (shared.Page[UserDTO], error) {
	return s.cachedList(ctx, []string{"list"}, page, func(ctx context.Context) ([]User, int, error) {
		return s.repo.List(ctx, page)
	})
}

// ListActive returns users whose working status is ACTIVE.
func (s *Service) ListActive(ctx context.Context, page shared.PageRequest) (shared.Page[UserDTO], error) {
	return s.cachedList(ctx, []string{"active"}, page, func(ctx context.Context) ([]User, int, error) {
		return s.repo.ListActive(ctx, page)
	})
}

// ListByRank returns users of the given rank literal.
func (s *Service) ListByRank(ctx context.Context, rawRank string, page shared.PageRequest) (shared.Page[UserDTO], error) {
	rank, err := ParseRank(rawRank)
	if err != nil {
		return shared.Page[UserDTO]{}, err
	}
	return s.cachedList(ctx, []string{"rank", string(rank)}, page, func(ctx context.Context) ([]User, int, error) {
		return s.repo.ListByRank(ctx, rank, page)
	})
}

// ListByMaxWeeklyHours returns users working strictly less than hours per week.
func (s *Service) ListByMaxWeeklyHours(ctx context.Context, hours int64, page shared.PageRequest) (shared.Page[UserDTO], error) {
	return s.cachedList(ctx, []string{"hours", strconv.FormatInt(hours, 10)}, page, func(ctx context.Context) ([]User, int, error) {
		return s.repo.ListByMaxWeeklyHours(ctx, hours, page)
	})
}

// Get fetches a single user by id, task set included.
func (s *Service) Get(ctx context.Context, id int64) (UserDTO, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}
	return ToDTO(user), nil
}

// Create inserts a new user and returns it with the assigned id.
func (s *Service) Create(ctx context.Context, dto UserDTO) (UserDTO, error) {
	user, err := toUser(dto)
	if err != nil {
		return UserDTO{}, err
	}
	user.ID = 0
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return UserDTO{}, err
	}
	s.recordAudit(ctx, "user.created", created.ID, map[string]any{"familyName": created.FamilyName})
	s.bumpCache(ctx)
	return ToDTO(created), nil
}

// Replace performs a full-field overwrite of an existing user.
func (s *Service) Replace(ctx context.Context, id int64, dto UserDTO) (UserDTO, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return UserDTO{}, err
	}
	user, err := toUser(dto)
	if err != nil {
		return UserDTO{}, err
	}
	if err := s.repo.Update(ctx, id, user); err != nil {
		return UserDTO{}, err
	}
	s.recordAudit(ctx, "user.replaced", id, nil)
	s.bumpCache(ctx)
	return s.Get(ctx, id)
}

// Patch applies a sparse merge of the present fields only.
func (s *Service) Patch(ctx context.Context, id int64, dto UserDTO) (UserDTO, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}
	if err := applyPartial(dto, &user); err != nil {
		return UserDTO{}, err
	}
	if err := s.repo.Update(ctx, id, user); err != nil {
		return UserDTO{}, err
	}
	s.recordAudit(ctx, "user.patched", id, nil)
	s.bumpCache(ctx)
	return s.Get(ctx, id)
}

// Delete removes a user by id.
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
	s.recordAudit(ctx, "user.deleted", id, nil)
	s.bumpCache(ctx)
	return nil
}

// AssignTask adds a task to the user's task set. A COMPLETED task may not
// receive new assignees; re-assigning an already-assigned task is a no-op.
func (s *Service) AssignTask(ctx context.Context, userID, taskID int64) (UserDTO, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return UserDTO{}, err
	}
	task, err := s.tasksRepo.Get(ctx, taskID)
	if err != nil {
		return UserDTO{}, err
	}
	if task.State == tasks.StateCompleted {
		return UserDTO{}, fmt.Errorf("%w: task has already been completed", httpx.ErrValidation)
	}
	if err := s.repo.AssignTask(ctx, userID, taskID); err != nil {
		return UserDTO{}, err
	}
	s.recordAudit(ctx, "user.task_assigned", userID, map[string]any{"taskId": taskID})
	s.bumpCache(ctx)
	s.notifyAssignment(ctx, userID, taskID, task.Name)
	return s.Get(ctx, userID)
}

func (s *Service) cachedList(ctx context.Context, keyParts []string, page shared.PageRequest, load func(context.Context) ([]User, int, error)) (shared.Page[UserDTO], error) {
	var result shared.Page[UserDTO]
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
		s.logger.Warn("bump user list cache", slog.Any("error", err))
	}
}

func (s *Service) notifyAssignment(ctx context.Context, userID, taskID int64, taskName string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAssignment(ctx, userID, taskID, taskName); err != nil && s.logger != nil {
		s.logger.Warn("enqueue assignment notice", slog.Any("error", err))
	}
}

func notFound(id int64) error {
	return fmt.Errorf("user %d: %w", id, httpx.ErrNotFound)
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{Action: action, Entity: "user", EntityID: strconv.FormatInt(id, 10), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}
