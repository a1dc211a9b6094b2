// Package worker defines the worker collaborator interface and the
// capability registry that pools worker instances for the orchestrator.
package worker

import (
	"context"

	"github.com/aiqueue/aiq/pkg/models"
)

// Worker performs domain work for tasks matching its capability.
//
// Handle may write to the task's Output map and must return exactly one of
// TaskStatusDone or TaskStatusFailed. It must not move the task between
// lanes or touch its dependencies; those fields belong to the orchestrator.
// A returned error is a fault, distinct from a failed result.
type Worker interface {
	// Name identifies the worker instance, recorded as the task assignee.
	Name() string
	// CanHandle reports whether this worker can take the given task.
	CanHandle(task *models.Task) bool
	// Handle performs the work and returns a terminal status.
	Handle(ctx context.Context, task *models.Task) (models.TaskStatus, error)
}

// Factory constructs a worker instance for a capability. The name is the
// instance label the registry assigns.
type Factory func(name string) Worker
