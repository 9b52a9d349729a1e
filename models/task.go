package models

import "time"

// TaskStatus is the per-user state of a task
type TaskStatus string

const (
	TaskStatusAvailable TaskStatus = "available"
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Stored completion codes in completed_tasks.status
const (
	CompletionPending   int16 = 0
	CompletionCompleted int16 = 1
)

// Task is an entry of the active task list
type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Reward      int64     `db:"reward" json:"reward"`
	Link        string    `db:"link" json:"link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserTask is a task with the status derived for one user
type UserTask struct {
	Task
	Status TaskStatus `json:"status"`
}

// TaskStatusFromCompletion derives the visible status from a completion record
func TaskStatusFromCompletion(status *int16) TaskStatus {
	switch {
	case status == nil:
		return TaskStatusAvailable
	case *status == CompletionCompleted:
		return TaskStatusCompleted
	case *status == CompletionPending:
		return TaskStatusPending
	default:
		return TaskStatusAvailable
	}
}
