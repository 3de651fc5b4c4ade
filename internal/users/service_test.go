package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
	"github.com/crewtrack/crewtrack/internal/tasks"
)

// ============================================================================
// MOCK REPOSITORIES
// ============================================================================

type mockRepository struct {
	users       map[int64]User
	assignments map[int64]map[int64]struct{}
	tasks       *mockTasksRepository
	nextID      int64
	listErr     error
}

func newMockRepository(tasksRepo *mockTasksRepository) *mockRepository {
	return &mockRepository{
		users:       make(map[int64]User),
		assignments: make(map[int64]map[int64]struct{}),
		tasks:       tasksRepo,
		nextID:      1,
	}
}

func (m *mockRepository) List(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return m.filter(page, func(User) bool { return true })
}

func (m *mockRepository) ListActive(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return m.filter(page, func(u User) bool {
		return u.WorkingStatus != nil && *u.WorkingStatus == StatusActive
	})
}

func (m *mockRepository) ListByRank(ctx context.Context, rank Rank, page shared.PageRequest) ([]User, int, error) {
	return m.filter(page, func(u User) bool { return u.Rank == rank })
}

func (m *mockRepository) ListByMaxWeeklyHours(ctx context.Context, hours int64, page shared.PageRequest) ([]User, int, error) {
	return m.filter(page, func(u User) bool {
		return u.WorkHoursPerWeek != nil && *u.WorkHoursPerWeek < hours
	})
}

func (m *mockRepository) filter(page shared.PageRequest, keep func(User) bool) ([]User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []User
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok && keep(u) {
			all = append(all, m.withTasks(u))
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

func (m *mockRepository) Get(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, notFound(id)
	}
	return m.withTasks(u), nil
}

func (m *mockRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *mockRepository) Create(ctx context.Context, user User) (User, error) {
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, user User) error {
	stored, ok := m.users[id]
	if !ok {
		return notFound(id)
	}
	user.ID = id
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	delete(m.users, id)
	delete(m.assignments, id)
	return nil
}

func (m *mockRepository) AssignTask(ctx context.Context, userID, taskID int64) error {
	set, ok := m.assignments[userID]
	if !ok {
		set = make(map[int64]struct{})
		m.assignments[userID] = set
	}
	set[taskID] = struct{}{}
	return nil
}

func (m *mockRepository) withTasks(u User) User {
	u.Tasks = nil
	if m.tasks == nil {
		return u
	}
	for id := int64(1); id < m.tasks.nextID; id++ {
		if _, ok := m.assignments[u.ID][id]; ok {
			u.Tasks = append(u.Tasks, m.tasks.tasks[id])
		}
	}
	return u
}

type mockTasksRepository struct {
	tasks  map[int64]tasks.Task
	nextID int64
}

func newMockTasksRepository() *mockTasksRepository {
	return &mockTasksRepository{tasks: make(map[int64]tasks.Task), nextID: 1}
}

func (m *mockTasksRepository) add(name string, state tasks.State) tasks.Task {
	task := tasks.Task{
		ID:                       m.nextID,
		Name:                     name,
		WorkTimePerWeekPerPerson: 10,
		Type:                     tasks.TypeBugFix,
		Deadline:                 time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
		State:                    state,
		WeeksNeeded:              2,
	}
	m.tasks[task.ID] = task
	m.nextID++
	return task
}

func (m *mockTasksRepository) List(ctx context.Context, page shared.PageRequest) ([]tasks.Task, int, error) {
	return nil, 0, nil
}

func (m *mockTasksRepository) ListByStateNot(ctx context.Context, state tasks.State, page shared.PageRequest) ([]tasks.Task, int, error) {
	return nil, 0, nil
}

func (m *mockTasksRepository) ListByType(ctx context.Context, taskType tasks.Type, page shared.PageRequest) ([]tasks.Task, int, error) {
	return nil, 0, nil
}

func (m *mockTasksRepository) Get(ctx context.Context, id int64) (tasks.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return tasks.Task{}, httpx.ErrNotFound
	}
	return t, nil
}

func (m *mockTasksRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.tasks[id]
	return ok, nil
}

func (m *mockTasksRepository) Create(ctx context.Context, task tasks.Task) (tasks.Task, error) {
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTasksRepository) Update(ctx context.Context, id int64, task tasks.Task) error {
	task.ID = id
	m.tasks[id] = task
	return nil
}

func (m *mockTasksRepository) Delete(ctx context.Context, id int64) error {
	delete(m.tasks, id)
	return nil
}

type recordingNotifier struct {
	calls []int64
	err   error
}

func (n *recordingNotifier) NotifyAssignment(ctx context.Context, userID, taskID int64, taskName string) error {
	n.calls = append(n.calls, taskID)
	return n.err
}

// ============================================================================
// HELPERS
// ============================================================================

func newTestService(repo Repository, tasksRepo tasks.Repository, notifier AssignmentNotifier) *Service {
	return NewService(repo, tasksRepo, nil, nil, notifier, nil)
}

func strPtr(s string) *string { return &s }

func intPtr(i int64) *int64 { return &i }

func validUserDTO() UserDTO {
	birth := shared.NewDate(1992, time.November, 23)
	return UserDTO{
		FirstName:        strPtr("Eszter"),
		FamilyName:       strPtr("Nagy"),
		WorkHoursPerWeek: intPtr(30),
		Rank:             strPtr("WORKER"),
		BirthDate:        &birth,
		Gender:           strPtr("FEMALE"),
		WorkingStatus:    strPtr("ACTIVE"),
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateUser(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	repo := newMockRepository(tasksRepo)
	svc := newTestService(repo, tasksRepo, nil)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(1), *created.ID)
	assert.Equal(t, "WORKER", *created.Rank)
	assert.NotNil(t, created.Tasks)
	assert.Empty(t, created.Tasks)
}

func TestCreateUserRejectsUnknownRank(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	dto := validUserDTO()
	dto.Rank = strPtr("INTERN")
	_, err := svc.Create(context.Background(), dto)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestPatchUserMergesPresentFields(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	patched, err := svc.Patch(context.Background(), *created.ID, UserDTO{WorkingStatus: strPtr("ON_VACATION")})
	require.NoError(t, err)
	assert.Equal(t, "ON_VACATION", *patched.WorkingStatus)
	assert.Equal(t, "Eszter", *patched.FirstName)
	require.NotNil(t, patched.WorkHoursPerWeek)
	assert.Equal(t, int64(30), *patched.WorkHoursPerWeek)
}

func TestDeleteUserNotFound(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	err := svc.Delete(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAssignTask(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	task := tasksRepo.add("Fix login timeout", tasks.StateInProgress)
	repo := newMockRepository(tasksRepo)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, tasksRepo, notifier)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	updated, err := svc.AssignTask(context.Background(), *created.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, updated.Tasks, 1)
	assert.Equal(t, "Fix login timeout", *updated.Tasks[0].Name)
	assert.Equal(t, []int64{task.ID}, notifier.calls)
}

func TestAssignTaskRejectsCompleted(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	task := tasksRepo.add("API reference refresh", tasks.StateCompleted)
	repo := newMockRepository(tasksRepo)
	svc := newTestService(repo, tasksRepo, nil)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	_, err = svc.AssignTask(context.Background(), *created.ID, task.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	assert.Contains(t, err.Error(), "already been completed")

	current, err := svc.Get(context.Background(), *created.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Tasks, "rejected assignment must leave the task set unchanged")
}

func TestAssignTaskIsIdempotent(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	task := tasksRepo.add("Fix login timeout", tasks.StateInProgress)
	repo := newMockRepository(tasksRepo)
	svc := newTestService(repo, tasksRepo, nil)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	_, err = svc.AssignTask(context.Background(), *created.ID, task.ID)
	require.NoError(t, err)
	updated, err := svc.AssignTask(context.Background(), *created.ID, task.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Tasks, 1)
}

func TestAssignTaskUnknownUser(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	task := tasksRepo.add("Fix login timeout", tasks.StateInProgress)
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	_, err := svc.AssignTask(context.Background(), 42, task.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAssignTaskUnknownTask(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	repo := newMockRepository(tasksRepo)
	svc := newTestService(repo, tasksRepo, nil)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	_, err = svc.AssignTask(context.Background(), *created.ID, 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAssignTaskNotifierFailureDoesNotFail(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	task := tasksRepo.add("Fix login timeout", tasks.StateInProgress)
	repo := newMockRepository(tasksRepo)
	notifier := &recordingNotifier{err: errors.New("queue down")}
	svc := newTestService(repo, tasksRepo, notifier)

	created, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	updated, err := svc.AssignTask(context.Background(), *created.ID, task.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Tasks, 1)
}

func TestListActiveFiltersStatus(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	_, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	retired := validUserDTO()
	retired.FirstName = strPtr("Bela")
	retired.WorkingStatus = strPtr("RETIRED")
	_, err = svc.Create(context.Background(), retired)
	require.NoError(t, err)

	page, err := svc.ListActive(context.Background(), shared.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Eszter", *page.Content[0].FirstName)
}

func TestListByRankRejectsUnknownLiteral(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	_, err := svc.ListByRank(context.Background(), "INTERN", shared.NewPageRequest(0, 20))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestListByMaxWeeklyHoursIsStrict(t *testing.T) {
	tasksRepo := newMockTasksRepository()
	svc := newTestService(newMockRepository(tasksRepo), tasksRepo, nil)

	_, err := svc.Create(context.Background(), validUserDTO())
	require.NoError(t, err)

	fullTime := validUserDTO()
	fullTime.FirstName = strPtr("Marton")
	fullTime.WorkHoursPerWeek = intPtr(40)
	_, err = svc.Create(context.Background(), fullTime)
	require.NoError(t, err)

	page, err := svc.ListByMaxWeeklyHours(context.Background(), 40, shared.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements, "strictly less than the bound")
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Eszter", *page.Content[0].FirstName)
}
