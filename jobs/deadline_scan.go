package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/crewtrack/crewtrack/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DeadlineScanJob sweeps the task table for unfinished work past its deadline.
type DeadlineScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDeadlineScanJob initialises the deadline scan handler.
func NewDeadlineScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DeadlineScanJob {
	return &DeadlineScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type overdueTask struct {
	ID       int64
	Name     string
	Type     string
	State    string
	Deadline time.Time
}

// Handle executes the deadline scan.
func (j *DeadlineScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("deadline scan: handler not configured")
	}

	start := j.now()
	tracker := j.metrics().Track(TaskTypeDeadlineScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting deadline scan")

	overdue, err := j.scan(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, o := range overdue {
		logger.Warn("task past deadline",
			slog.Int64("task_id", o.ID),
			slog.String("name", o.Name),
			slog.String("type", o.Type),
			slog.String("state", o.State),
			slog.Time("deadline", o.Deadline),
		)
		j.metrics().AddOverdue(o.Type, 1)
	}

	logger.Info("completed deadline scan",
		slog.Int("overdue", len(overdue)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *DeadlineScanJob) scan(ctx context.Context) ([]overdueTask, error) {
	if j.Pool == nil {
		return nil, errors.New("deadline scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx,
		`SELECT id, name, type, state, deadline
		 FROM tasks
		 WHERE state <> 'COMPLETED' AND deadline < CURRENT_DATE
		 ORDER BY deadline, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []overdueTask
	for rows.Next() {
		var o overdueTask
		if err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.State, &o.Deadline); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

func (j *DeadlineScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeDeadlineScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeDeadlineScan))
}

func (j *DeadlineScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DeadlineScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
