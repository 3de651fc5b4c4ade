package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
)

// Repository defines data access for tasks.
type Repository interface {
	List(ctx context.Context, page shared.PageRequest) ([]Task, int, error)
	ListByStateNot(ctx context.Context, state State, page shared.PageRequest) ([]Task, int, error)
	ListByType(ctx context.Context, taskType Type, page shared.PageRequest) ([]Task, int, error)
	Get(ctx context.Context, id int64) (Task, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, task Task) (Task, error)
	Update(ctx context.Context, id int64, task Task) error
	Delete(ctx context.Context, id int64) error
}

const taskColumns = `id, name, description, work_time_per_week_per_person, type, deadline, state, weeks_needed, persons_needed, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]Task, int, error) {
	return r.listWhere(ctx, page, "", nil)
}

func (r *repository) ListByStateNot(ctx context.Context, state State, page shared.PageRequest) ([]Task, int, error) {
	return r.listWhere(ctx, page, `state <> $1`, []any{string(state)})
}

func (r *repository) ListByType(ctx context.Context, taskType Type, page shared.PageRequest) ([]Task, int, error) {
	return r.listWhere(ctx, page, `type = $1`, []any{string(taskType)})
}

func (r *repository) listWhere(ctx context.Context, page shared.PageRequest, where string, args []any) ([]Task, int, error) {
	countQuery := `SELECT COUNT(*) FROM tasks`
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if where != "" {
		countQuery += ` WHERE ` + where
		query += ` WHERE ` + where
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, fmt.Errorf("task %d: %w", id, httpx.ErrNotFound)
	}
	return t, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, task Task) (Task, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (name, description, work_time_per_week_per_person, type, deadline, state, weeks_needed, persons_needed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		task.Name, task.Description, task.WorkTimePerWeekPerPerson, string(task.Type),
		task.Deadline, string(task.State), task.WeeksNeeded, task.PersonsNeeded,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return Task{}, mapConstraintError(err)
	}
	return task, nil
}

func (r *repository) Update(ctx context.Context, id int64, task Task) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tasks SET name = $1, description = $2, work_time_per_week_per_person = $3, type = $4, deadline = $5, state = $6, weeks_needed = $7, persons_needed = $8, updated_at = NOW() WHERE id = $9`,
		task.Name, task.Description, task.WorkTimePerWeekPerPerson, string(task.Type),
		task.Deadline, string(task.State), task.WeeksNeeded, task.PersonsNeeded, id,
	)
	return mapConstraintError(err)
}

// Delete removes the row without reporting absence; the service pre-checks
// existence so the not-found path is decided there.
func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var typ, state string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.WorkTimePerWeekPerPerson, &typ,
		&t.Deadline, &state, &t.WeeksNeeded, &t.PersonsNeeded, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	t.Type = Type(typ)
	t.State = State(state)
	return t, nil
}

// mapConstraintError surfaces storage-level constraint violations as
// validation failures, per the write contract.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502", "23503", "23505", "23514", "22001":
			return fmt.Errorf("%w: %s", httpx.ErrValidation, pgErr.Message)
		}
	}
	return err
}
