// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the task-tracking operations the date sync needs.
// The job never imports a backend package directly.
type Service interface {
	// ListParentTasks returns the non-completed tasks of a project with
	// name, start date, due date and subtask count populated.
	// Results are in API order; no pagination.
	ListParentTasks(ctx context.Context, projectID string) ([]Task, error)

	// ListSubtasks returns the direct subtasks of a task with their dates.
	ListSubtasks(ctx context.Context, taskID string) ([]Task, error)

	// UpdateTaskDates writes the present bounds of update to the task.
	// Nil bounds are left untouched on the remote task.
	UpdateTaskDates(ctx context.Context, taskID string, update DateUpdate) error
}
