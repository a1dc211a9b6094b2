package orchestrator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/aiqueue/aiq/pkg/models"
)

// EventType identifies the kind of orchestrator event.
type EventType string

const (
	// EventGoalIngested is emitted after a goal is planned and stored.
	EventGoalIngested EventType = "goal_ingested"
	// EventTaskAdded is emitted for each task a plan adds to the store.
	EventTaskAdded EventType = "task_added"
	// EventTaskDispatched is emitted when a task is handed to a worker.
	EventTaskDispatched EventType = "task_dispatched"
	// EventTaskDone is emitted when a worker reports done.
	EventTaskDone EventType = "task_done"
	// EventTaskFailed is emitted when a worker reports failed or faults.
	EventTaskFailed EventType = "task_failed"
	// EventTaskMoved is emitted when a task changes lanes.
	EventTaskMoved EventType = "task_moved"
	// EventDelegationPending is emitted for a delegated task no worker can
	// take; the human-in-the-loop hook.
	EventDelegationPending EventType = "delegation_pending"
)

// Event describes a single orchestrator occurrence. Events are observational
// only and never affect control flow.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the id of the task involved, if any.
	TaskID string
	// TaskTitle is the title of the task involved, if any.
	TaskTitle string
	// Lane is the task's lane after the event.
	Lane models.Lane
	// Status is the task's status after the event.
	Status models.TaskStatus
	// Worker is the name of the worker involved, if any.
	Worker string
	// Message is a human-readable description.
	Message string
	// Err holds the fault for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// EventEmitter provides thread-safe event delivery to subscribers.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates an EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel. If the channel is full it
// retries briefly before dropping the event, so a slow subscriber can never
// stall a tick.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events for subscribers.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Call when the orchestrator is stopped.
func (e *EventEmitter) Close() {
	close(e.events)
}
