// Package store owns all task records and answers the lane queries the
// orchestrator dispatches from. It is the single source of truth for
// dependency satisfaction.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aiqueue/aiq/pkg/models"
)

// ErrUnknownTask indicates an operation referenced a task id that is not in
// the store. This is a caller programming error, not a runtime condition.
var ErrUnknownTask = errors.New("unknown task")

// ErrDuplicateID indicates a batch insert collided with an existing task id.
var ErrDuplicateID = errors.New("duplicate task id")

// TaskStore holds and routes tasks among the three lanes.
// All methods are safe for concurrent use; lane and status mutations are
// serialized by a single lock so a dependency check always reads a
// consistent snapshot of referenced statuses.
type TaskStore struct {
	// tasks maps task ID to the task record.
	tasks map[string]*models.Task
	// order records insertion order so queries return deterministic slices.
	order []string
	// revision increments on every mutation; callers can compare revisions
	// to detect that a tick changed nothing.
	revision uint64
	// mu protects all fields.
	mu sync.RWMutex
}

// New creates an empty TaskStore.
func New() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*models.Task),
	}
}

// AddBatch inserts all given tasks. If any id already exists, or appears
// twice within the batch, no task is inserted and ErrDuplicateID is returned.
func (s *TaskStore) AddBatch(tasks []*models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if _, exists := s.tasks[t.ID]; exists || seen[t.ID] {
			return fmt.Errorf("add task %q: %w", t.ID, ErrDuplicateID)
		}
		seen[t.ID] = true
	}

	for _, t := range tasks {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	s.revision++
	return nil
}

// Move reassigns the lane of the task with the given id.
func (s *TaskStore) Move(id string, lane models.Lane) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("move task %q: %w", id, ErrUnknownTask)
	}
	t.Lane = lane
	s.revision++
	return nil
}

// SetStatus unconditionally overwrites the status of the task with the given id.
func (s *TaskStore) SetStatus(id string, status models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("set status of task %q: %w", id, ErrUnknownTask)
	}
	t.Status = status
	s.revision++
	return nil
}

// SetAssignee records the worker that last handled the task.
func (s *TaskStore) SetAssignee(id, assignee string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("assign task %q: %w", id, ErrUnknownTask)
	}
	t.Assignee = assignee
	s.revision++
	return nil
}

// Revision returns a counter that increments on every mutation.
func (s *TaskStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns the task for the given id.
func (s *TaskStore) Get(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Len returns the number of tasks in the store.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// All returns every task in insertion order.
func (s *TaskStore) All() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

// ReadyForExecution returns on_target tasks that are pending and whose direct
// dependencies have all reached done, in insertion order. Dependency
// satisfaction is evaluated through direct edges only; the planner bakes
// full-batch cross dependencies into the graph, so no transitive closure is
// needed.
func (s *TaskStore) ReadyForExecution() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ready []*models.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t.Lane != models.LaneOnTarget || t.Status != models.TaskStatusPending {
			continue
		}
		if s.depsDoneLocked(t) {
			ready = append(ready, t)
		}
	}
	return ready
}

// depsDoneLocked reports whether every direct dependency of t is done.
// Caller must hold s.mu.
func (s *TaskStore) depsDoneLocked(t *models.Task) bool {
	for _, depID := range t.DependsOn {
		dep, ok := s.tasks[depID]
		if !ok || dep.Status != models.TaskStatusDone {
			return false
		}
	}
	return true
}

// NeedsDelegation returns delegation-lane tasks awaiting a handler, in
// insertion order. Failed tasks are included: a faulted task rerouted to the
// delegation lane is re-inspected here rather than dropped.
func (s *TaskStore) NeedsDelegation() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t.Lane != models.LaneDelegation {
			continue
		}
		if t.Status == models.TaskStatusPending || t.Status == models.TaskStatusFailed {
			out = append(out, t)
		}
	}
	return out
}

// Backlog returns all back_burner tasks in insertion order. Ticks never act
// on the backlog; it is surfaced for observability only.
func (s *TaskStore) Backlog() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.Lane == models.LaneBackBurner {
			out = append(out, t)
		}
	}
	return out
}

// Summary returns task counts keyed by lane and by status. The per-lane
// counts and the per-status counts each sum to the total task count.
func (s *TaskStore) Summary() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, lane := range []models.Lane{models.LaneOnTarget, models.LaneDelegation, models.LaneBackBurner} {
		counts[string(lane)] = 0
	}
	for _, status := range []models.TaskStatus{
		models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusBlocked,
		models.TaskStatusDone, models.TaskStatusFailed,
	} {
		counts[string(status)] = 0
	}
	for _, t := range s.tasks {
		counts[string(t.Lane)]++
		counts[string(t.Status)]++
	}
	return counts
}
