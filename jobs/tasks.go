package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAssignmentNotice is emitted after a task is assigned to a user.
	TaskTypeAssignmentNotice = "assignment:notice"
	// TaskTypeDeadlineScan triggers the overdue-task sweep.
	TaskTypeDeadlineScan = "deadline:scan"
)

// AssignmentNoticePayload carries the details of a task assignment.
type AssignmentNoticePayload struct {
	EventID  uuid.UUID `json:"eventId"`
	UserID   int64     `json:"userId"`
	TaskID   int64     `json:"taskId"`
	TaskName string    `json:"taskName"`
	At       time.Time `json:"at"`
}

// NewAssignmentNoticeTask constructs an Asynq task for an assignment notice.
func NewAssignmentNoticeTask(payload AssignmentNoticePayload) (*asynq.Task, error) {
	if payload.EventID == uuid.Nil {
		payload.EventID = uuid.New()
	}
	if payload.At.IsZero() {
		payload.At = time.Now().UTC()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAssignmentNotice, data), nil
}

// NewDeadlineScanTask constructs the scheduled deadline-scan task.
func NewDeadlineScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDeadlineScan, nil)
}

// NewAssignmentNoticeHandler returns the handler for assignment notices.
// Delivery is a log line for now; the hook is where a mail or chat
// integration would go.
func NewAssignmentNoticeHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AssignmentNoticePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("task assignment notice",
			slog.String("event_id", payload.EventID.String()),
			slog.Int64("user_id", payload.UserID),
			slog.Int64("task_id", payload.TaskID),
			slog.String("task_name", payload.TaskName),
			slog.Time("at", payload.At),
		)
		return nil
	}
}
