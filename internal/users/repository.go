package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/shared"
	"github.com/crewtrack/crewtrack/internal/tasks"
)

// Repository defines data access for users and their task assignments.
type Repository interface {
	List(ctx context.Context, page shared.PageRequest) ([]User, int, error)
	ListActive(ctx context.Context, page shared.PageRequest) ([]User, int, error)
	ListByRank(ctx context.Context, rank Rank, page shared.PageRequest) ([]User, int, error)
	ListByMaxWeeklyHours(ctx context.Context, hours int64, page shared.PageRequest) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int64, user User) error
	Delete(ctx context.Context, id int64) error
	AssignTask(ctx context.Context, userID, taskID int64) error
}

const userColumns = `id, first_name, family_name, work_hours_per_week, rank, birth_date, gender, working_status, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return r.listWhere(ctx, page, "", nil)
}

func (r *repository) ListActive(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return r.listWhere(ctx, page, `working_status = $1`, []any{string(StatusActive)})
}

func (r *repository) ListByRank(ctx context.Context, rank Rank, page shared.PageRequest) ([]User, int, error) {
	return r.listWhere(ctx, page, `rank = $1`, []any{string(rank)})
}

func (r *repository) ListByMaxWeeklyHours(ctx context.Context, hours int64, page shared.PageRequest) ([]User, int, error) {
	return r.listWhere(ctx, page, `work_hours_per_week < $1`, []any{hours})
}

func (r *repository) listWhere(ctx context.Context, page shared.PageRequest, where string, args []any) ([]User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users`
	query := `SELECT ` + userColumns + ` FROM users`
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

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadTasks(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return User{}, err
	}
	users := []User{u}
	if err := r.loadTasks(ctx, users); err != nil {
		return User{}, err
	}
	return users[0], nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (first_name, family_name, work_hours_per_week, rank, birth_date, gender, working_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		user.FirstName, user.FamilyName, user.WorkHoursPerWeek, string(user.Rank),
		user.BirthDate, enumOrNil(user.Gender), enumOrNil(user.WorkingStatus),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, mapConstraintError(err)
	}
	return user, nil
}

func (r *repository) Update(ctx context.Context, id int64, user User) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET first_name = $1, family_name = $2, work_hours_per_week = $3, rank = $4, birth_date = $5, gender = $6, working_status = $7, updated_at = NOW() WHERE id = $8`,
		user.FirstName, user.FamilyName, user.WorkHoursPerWeek, string(user.Rank),
		user.BirthDate, enumOrNil(user.Gender), enumOrNil(user.WorkingStatus), id,
	)
	return mapConstraintError(err)
}

// Delete removes the row without reporting absence; the service pre-checks
// existence. Join rows go with the user via ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// AssignTask inserts one join row. ON CONFLICT DO NOTHING gives the
// assignment set semantics: re-adding an assigned task is a no-op.
func (r *repository) AssignTask(ctx context.Context, userID, taskID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users_tasks (user_id, task_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, taskID,
	)
	return mapConstraintError(err)
}

// loadTasks hydrates the task sets of the given users in one query.
func (r *repository) loadTasks(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	index := make(map[int64]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		index[users[i].ID] = i
		users[i].Tasks = nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT ut.user_id, t.id, t.name, t.description, t.work_time_per_week_per_person, t.type, t.deadline, t.state, t.weeks_needed, t.persons_needed, t.created_at, t.updated_at
		 FROM users_tasks ut
		 JOIN tasks t ON t.id = ut.task_id
		 WHERE ut.user_id = ANY($1)
		 ORDER BY ut.user_id, t.id`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var t tasks.Task
		var typ, state string
		if err := rows.Scan(&userID, &t.ID, &t.Name, &t.Description, &t.WorkTimePerWeekPerPerson, &typ,
			&t.Deadline, &state, &t.WeeksNeeded, &t.PersonsNeeded, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
		t.Type = tasks.Type(typ)
		t.State = tasks.State(state)
		i := index[userID]
		users[i].Tasks = append(users[i].Tasks, t)
	}
	return rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var rank string
	var gender, status *string
	err := row.Scan(&u.ID, &u.FirstName, &u.FamilyName, &u.WorkHoursPerWeek, &rank,
		&u.BirthDate, &gender, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.Rank = Rank(rank)
	if gender != nil {
		g := Gender(*gender)
		u.Gender = &g
	}
	if status != nil {
		ws := WorkingStatus(*status)
		u.WorkingStatus = &ws
	}
	return u, nil
}

func enumOrNil[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
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
