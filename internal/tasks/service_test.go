package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	tasks  map[int64]Task
	nextID int64

	listErr   error
	getErr    error
	createErr error
	updateErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{tasks: make(map[int64]Task), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, page shared.PageRequest) ([]Task, int, error) {
	return m.filter(page, func(Task) bool { return true })
}

func (m *mockRepository) ListByStateNot(ctx context.Context, state State, page shared.PageRequest) ([]Task, int, error) {
	return m.filter(page, func(t Task) bool { return t.State != state })
}

func (m *mockRepository) ListByType(ctx context.Context, taskType Type, page shared.PageRequest) ([]Task, int, error) {
	return m.filter(page, func(t Task) bool { return t.Type == taskType })
}

func (m *mockRepository) filter(page shared.PageRequest, keep func(Task) bool) ([]Task, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []Task
	for id := int64(1); id < m.nextID; id++ {
		if t, ok := m.tasks[id]; ok && keep(t) {
			all = append(all, t)
		}
	}
	total := len(all)
	from := page.Offset()
	if from > total {
		from = total
	}
	to := from + page.Limit()
	if to > total {
		to = total
	}
	return all[from:to], total, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Task, error) {
	if m.getErr != nil {
		return Task{}, m.getErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, notFound(id)
	}
	return t, nil
}

func (m *mockRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.tasks[id]
	return ok, nil
}

func (m *mockRepository) Create(ctx context.Context, task Task) (Task, error) {
	if m.createErr != nil {
		return Task{}, m.createErr
	}
	task.ID = m.nextID
	m.nextID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, task Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.tasks[id]
	if !ok {
		return notFound(id)
	}
	task.ID = id
	task.CreatedAt = stored.CreatedAt
	task.UpdatedAt = time.Now()
	m.tasks[id] = task
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	delete(m.tasks, id)
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, nil, nil)
}

func strPtr(s string) *string { return &s }

func intPtr(i int64) *int64 { return &i }

func datePtr(year int, month time.Month, day int) *shared.Date {
	d := shared.NewDate(year, month, day)
	return &d
}

func validTaskDTO() TaskDTO {
	return TaskDTO{
		Name:                     strPtr("Fix login timeout"),
		Description:              strPtr("Session expires too early"),
		WorkTimePerWeekPerPerson: intPtr(10),
		Type:                     strPtr("BUG_FIX"),
		DeadLine:                 datePtr(2026, time.December, 31),
		State:                    strPtr("NOT_STARTED"),
		WeeksNeeded:              intPtr(2),
		PersonsNeeded:            intPtr(1),
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateAssignsID(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validTaskDTO())
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(1), *created.ID)
	assert.Equal(t, "Fix login timeout", *created.Name)
}

func TestCreateIgnoresClientID(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	dto := validTaskDTO()
	dto.ID = intPtr(99)
	created, err := svc.Create(context.Background(), dto)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *created.ID)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	dto := validTaskDTO()
	dto.Type = strPtr("GARDENING")
	_, err := svc.Create(context.Background(), dto)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestGetNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestReplaceOverwritesAllFields(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validTaskDTO())
	require.NoError(t, err)

	replacement := validTaskDTO()
	replacement.Name = strPtr("Fix session handling")
	replacement.Description = nil
	replacement.State = strPtr("IN_PROGRESS")
	updated, err := svc.Replace(context.Background(), *created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, "Fix session handling", *updated.Name)
	assert.Equal(t, "IN_PROGRESS", *updated.State)
	assert.Nil(t, updated.Description, "replace drops omitted optional fields")
}

func TestReplaceNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Replace(context.Background(), 7, validTaskDTO())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestPatchMergesPresentFieldsOnly(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validTaskDTO())
	require.NoError(t, err)

	patch := TaskDTO{State: strPtr("COMPLETED")}
	updated, err := svc.Patch(context.Background(), *created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", *updated.State)
	assert.Equal(t, "Fix login timeout", *updated.Name, "untouched field survives patch")
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Session expires too early", *updated.Description)
}

func TestPatchRejectsUnknownState(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validTaskDTO())
	require.NoError(t, err)

	patch := TaskDTO{State: strPtr("DONE")}
	_, err = svc.Patch(context.Background(), *created.ID, patch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestDeleteRemovesTask(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), validTaskDTO())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), *created.ID))

	_, err = svc.Get(context.Background(), *created.ID)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeleteNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestListAvailableExcludesCompleted(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	open := validTaskDTO()
	_, err := svc.Create(context.Background(), open)
	require.NoError(t, err)

	done := validTaskDTO()
	done.Name = strPtr("API reference refresh")
	done.State = strPtr("COMPLETED")
	_, err = svc.Create(context.Background(), done)
	require.NoError(t, err)

	page, err := svc.ListAvailable(context.Background(), shared.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Fix login timeout", *page.Content[0].Name)
}

func TestListByTypeRejectsUnknownLiteral(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.ListByType(context.Background(), "GARDENING", shared.NewPageRequest(0, 20))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestListPaginates(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	for i := 0; i < 5; i++ {
		dto := validTaskDTO()
		_, err := svc.Create(context.Background(), dto)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), shared.NewPageRequest(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Content, 2)
	assert.Equal(t, int64(3), *page.Content[0].ID)
}

func TestListEmptyPageHasEmptyContent(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	page, err := svc.List(context.Background(), shared.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
	assert.Equal(t, 0, page.TotalElements)
}
