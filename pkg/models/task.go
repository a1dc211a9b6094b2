package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusBlocked indicates the task cannot proceed.
	// Reserved for dependency-stall detection; no transition in the core
	// currently enters it.
	TaskStatusBlocked TaskStatus = "blocked"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the last attempt at the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is one a worker may report.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed
}

// Lane is one of the three routing buckets a task lives in.
type Lane string

const (
	// LaneOnTarget holds tasks the orchestrator should execute next.
	LaneOnTarget Lane = "on_target"
	// LaneDelegation holds tasks that need a specialized or human handler.
	LaneDelegation Lane = "delegation"
	// LaneBackBurner holds deferred work; ticks never act on it.
	LaneBackBurner Lane = "back_burner"
)

// Valid returns true if the lane is a known value.
func (l Lane) Valid() bool {
	switch l {
	case LaneOnTarget, LaneDelegation, LaneBackBurner:
		return true
	default:
		return false
	}
}

// Task represents a unit of work in the system.
//
// Ownership: ID, Title, Description, Capability, Params and DependsOn are set
// by the planner and immutable afterwards. Lane, Status and Assignee are
// mutated only by the orchestrator. Output is written only by the worker
// handling the task.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Lane is the routing bucket this task currently lives in.
	Lane Lane `json:"lane"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// DependsOn lists task IDs that must reach done before this task.
	DependsOn []string `json:"depends_on,omitempty"`
	// Assignee is the name of the worker that last handled this task.
	Assignee string `json:"assignee,omitempty"`
	// Capability tags the kind of worker required. Empty means no worker
	// can be resolved and the task is routed to the delegation lane.
	Capability string `json:"capability,omitempty"`
	// Params holds planner-supplied inputs for the worker.
	Params map[string]string `json:"params,omitempty"`
	// Output accumulates results written by the handling worker.
	Output map[string]string `json:"output,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
}

// SetOutput records a worker result, allocating the map on first write.
func (t *Task) SetOutput(key, value string) {
	if t.Output == nil {
		t.Output = make(map[string]string)
	}
	t.Output[key] = value
}

// Param returns the planner-supplied parameter for key, or "" if absent.
func (t *Task) Param(key string) string {
	return t.Params[key]
}
