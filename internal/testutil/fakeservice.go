// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/civil"

	"datesync/internal/service"
)

// ErrNotFound is returned when a task is not found.
var ErrNotFound = errors.New("not found")

// Update records one UpdateTaskDates call.
type Update struct {
	TaskID string
	Update service.DateUpdate
}

// FakeService is an in-memory implementation of service.Service for testing.
// Updates are applied to the stored parent so that a second run sees them.
type FakeService struct {
	mu       sync.RWMutex
	projects map[string][]string     // projectID -> task IDs in order
	tasks    map[string]service.Task // taskID -> task
	subtasks map[string][]string     // parent taskID -> subtask IDs

	// Call recording
	SubtaskCalls []string
	Updates      []Update

	// Error injection for testing
	ListParentTasksErr error
	ListSubtasksErr    map[string]error // taskID -> error
	UpdateErr          map[string]error // taskID -> error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		projects:        make(map[string][]string),
		tasks:           make(map[string]service.Task),
		subtasks:        make(map[string][]string),
		ListSubtasksErr: make(map[string]error),
		UpdateErr:       make(map[string]error),
	}
}

// AddTask adds a top-level task to a project.
// NumSubtasks is kept in step by AddSubtask.
func (f *FakeService) AddTask(projectID, taskID, name string, start, due *civil.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[projectID] = append(f.projects[projectID], taskID)
	f.tasks[taskID] = service.Task{ID: taskID, Name: name, StartOn: start, DueOn: due}
}

// AddSubtask adds a subtask under parentID.
func (f *FakeService) AddSubtask(parentID, taskID, name string, start, due *civil.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subtasks[parentID] = append(f.subtasks[parentID], taskID)
	f.tasks[taskID] = service.Task{ID: taskID, Name: name, StartOn: start, DueOn: due}
	parent := f.tasks[parentID]
	parent.NumSubtasks++
	f.tasks[parentID] = parent
}

// Task returns the stored task.
func (f *FakeService) Task(taskID string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[taskID]
	return t, ok
}

// ListParentTasks implements service.Service.
func (f *FakeService) ListParentTasks(ctx context.Context, projectID string) ([]service.Task, error) {
	if f.ListParentTasksErr != nil {
		return nil, f.ListParentTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, 0, len(f.projects[projectID]))
	for _, id := range f.projects[projectID] {
		result = append(result, f.tasks[id])
	}
	return result, nil
}

// ListSubtasks implements service.Service.
func (f *FakeService) ListSubtasks(ctx context.Context, taskID string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubtaskCalls = append(f.SubtaskCalls, taskID)
	if err := f.ListSubtasksErr[taskID]; err != nil {
		return nil, err
	}
	if _, ok := f.tasks[taskID]; !ok {
		return nil, ErrNotFound
	}
	result := make([]service.Task, 0, len(f.subtasks[taskID]))
	for _, id := range f.subtasks[taskID] {
		result = append(result, f.tasks[id])
	}
	return result, nil
}

// UpdateTaskDates implements service.Service.
func (f *FakeService) UpdateTaskDates(ctx context.Context, taskID string, update service.DateUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.UpdateErr[taskID]; err != nil {
		return err
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	f.Updates = append(f.Updates, Update{TaskID: taskID, Update: update})
	if update.StartOn != nil {
		task.StartOn = update.StartOn
	}
	if update.DueOn != nil {
		task.DueOn = update.DueOn
	}
	f.tasks[taskID] = task
	return nil
}

// Date parses a YYYY-MM-DD string into a date pointer, panicking on bad input.
// An empty string yields nil.
func Date(s string) *civil.Date {
	if s == "" {
		return nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}
