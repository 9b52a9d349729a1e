package service

import (
	"context"
	"fmt"

	"plombir/models"
)

// taskService implements the TaskService interface
type taskService struct {
	uowFactory UnitOfWorkFactory
}

// NewTaskService creates a new task service
func NewTaskService(uowFactory UnitOfWorkFactory) TaskService {
	return &taskService{uowFactory: uowFactory}
}

// ListTasks returns every task the user has not completed yet
func (s *taskService) ListTasks(ctx context.Context, userID int64) ([]*models.UserTask, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tasks, err := uow.TaskRepository().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// StartTask marks a task as pending review for the user
func (s *taskService) StartTask(ctx context.Context, userID int64, taskID int64) error {
	if taskID <= 0 {
		return ErrUnknownTask
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	task, err := uow.TaskRepository().GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return ErrUnknownTask
	}

	if err := uow.TaskRepository().MarkPending(ctx, userID, taskID); err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
