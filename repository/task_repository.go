package repository

import (
	"context"
	"errors"
	"fmt"

	"plombir/database"
	"plombir/models"

	"github.com/jackc/pgx/v5"
)

// TaskRepository implements the TaskRepository interface
type TaskRepository struct {
	q queryable
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{q: db.Pool}
}

func newTaskRepositoryWithTx(tx queryable) *TaskRepository {
	return &TaskRepository{q: tx}
}

// GetByID returns an active task, nil when absent
func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*models.Task, error) {
	var task models.Task
	err := r.q.QueryRow(ctx,
		`SELECT id, title, description, reward, link, created_at FROM active_tasks WHERE id = $1`,
		taskID,
	).Scan(&task.ID, &task.Title, &task.Description, &task.Reward, &task.Link, &task.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}
	return &task, nil
}

// ListForUser returns tasks not yet completed by the user, with their derived status
func (r *TaskRepository) ListForUser(ctx context.Context, userID int64) ([]*models.UserTask, error) {
	query := `
		SELECT t.id, t.title, t.description, t.reward, t.link, t.created_at, c.status
		FROM active_tasks t
		LEFT JOIN completed_tasks c ON c.task_id = t.id AND c.user_id = $1
		WHERE c.status IS DISTINCT FROM $2
		ORDER BY t.id
	`

	rows, err := r.q.Query(ctx, query, userID, models.CompletionCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for user %d: %w", userID, err)
	}
	defer rows.Close()

	tasks := make([]*models.UserTask, 0)
	for rows.Next() {
		var task models.UserTask
		var status *int16
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Reward, &task.Link, &task.CreatedAt, &status); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Status = models.TaskStatusFromCompletion(status)
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// MarkPending records that the user started a task. A completed record is left as is.
func (r *TaskRepository) MarkPending(ctx context.Context, userID, taskID int64) error {
	query := `
		INSERT INTO completed_tasks (user_id, task_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, task_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = NOW()
		WHERE completed_tasks.status <> $4
	`

	if _, err := r.q.Exec(ctx, query, userID, taskID, models.CompletionPending, models.CompletionCompleted); err != nil {
		return fmt.Errorf("failed to mark task %d pending for user %d: %w", taskID, userID, err)
	}
	return nil
}
