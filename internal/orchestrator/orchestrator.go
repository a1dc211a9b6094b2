// Package orchestrator drives task execution across the three lanes.
//
// Each invocation of Tick makes one pass: eligible on_target tasks are
// dispatched to capability-matched workers, delegated tasks are re-attempted,
// and the backlog is left alone. The caller ticks repeatedly until the store
// stops changing.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aiqueue/aiq/internal/planner"
	"github.com/aiqueue/aiq/internal/store"
	"github.com/aiqueue/aiq/internal/worker"
	"github.com/aiqueue/aiq/pkg/models"
)

// Orchestrator consumes the task store and worker registry. It is the only
// actor that mutates task status, lane and assignee.
type Orchestrator struct {
	store    *store.TaskStore
	registry *worker.Registry
	planner  *planner.Planner
	sink     Sink
	emitter  *EventEmitter
	logger   *DebugLogger

	// capLocks serializes dispatch per capability: pooled workers are
	// single instances and their Handle is not required to be reentrant.
	capLocks map[string]*sync.Mutex
	capMu    sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPlanner sets the goal planner. Defaults to the content pipeline rules.
func WithPlanner(p *planner.Planner) Option {
	return func(o *Orchestrator) { o.planner = p }
}

// WithSink sets the progress sink. Defaults to a no-op sink.
func WithSink(s Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithEmitter sets the event emitter. Without one, no events are emitted.
func WithEmitter(e *EventEmitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator over the given store and registry.
func New(st *store.TaskStore, registry *worker.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		registry: registry,
		planner:  planner.New(nil),
		sink:     NopSink{},
		logger:   NopLogger(),
		capLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IngestGoal plans the goal and loads the resulting tasks into the store.
func (o *Orchestrator) IngestGoal(goal string) error {
	o.progress("Received goal: %s", goal)

	tasks := o.planner.Plan(goal)
	if err := o.store.AddBatch(tasks); err != nil {
		return fmt.Errorf("ingest goal: %w", err)
	}

	for _, t := range tasks {
		o.progress("Task added [%s]: %s (%s)", t.Lane, t.Title, shortID(t.ID))
		o.emit(Event{
			Type:      EventTaskAdded,
			TaskID:    t.ID,
			TaskTitle: t.Title,
			Lane:      t.Lane,
			Status:    t.Status,
		})
	}
	o.emit(Event{
		Type:    EventGoalIngested,
		Message: fmt.Sprintf("goal planned into %d tasks", len(tasks)),
	})
	return nil
}

// Tick runs one orchestration pass. Eligible on_target tasks are dispatched
// concurrently and joined; delegated tasks are then re-attempted one at a
// time; the backlog is not acted upon. Per-task recovery means a tick never
// aborts because one task lacks a capability or its worker faulted.
func (o *Orchestrator) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, t := range o.store.ReadyForExecution() {
		w, ok := o.resolveWorker(t)
		if !ok {
			// No worker for this task: park it for delegation instead of
			// losing it. Status stays pending so it is retried there.
			o.park(t)
			continue
		}

		// Mark in_progress before releasing control so the next
		// ReadyForExecution call can never select the task twice.
		if err := o.markDispatched(t, w); err != nil {
			return err
		}
		wg.Add(1)
		go func(t *models.Task, w worker.Worker) {
			defer wg.Done()
			o.dispatch(ctx, t, w)
		}(t, w)
	}
	wg.Wait()

	for _, t := range o.store.NeedsDelegation() {
		o.progress("Delegation needed: %s (%s)", t.Title, shortID(t.ID))

		w, ok := o.resolveWorker(t)
		if !ok {
			// Nothing can take it; surface for a human and leave it queued.
			o.emit(Event{
				Type:      EventDelegationPending,
				TaskID:    t.ID,
				TaskTitle: t.Title,
				Lane:      t.Lane,
				Status:    t.Status,
				Message:   "no worker capability matches; human attention needed",
			})
			continue
		}

		// A failed task gets a clean slate before the replay, so failed
		// keeps meaning "last attempt failed" rather than "permanently dead".
		if t.Status == models.TaskStatusFailed {
			if err := o.store.SetStatus(t.ID, models.TaskStatusPending); err != nil {
				return err
			}
		}
		if err := o.markDispatched(t, w); err != nil {
			return err
		}
		o.progress("Re-dispatching delegated task to %s: %s", w.Name(), t.Title)
		o.dispatch(ctx, t, w)
	}

	return nil
}

// Run ticks until a pass leaves the store unchanged or maxTicks is reached.
// maxTicks <= 0 means no limit.
func (o *Orchestrator) Run(ctx context.Context, maxTicks int) error {
	for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
		before := o.store.Revision()
		if err := o.Tick(ctx); err != nil {
			return err
		}
		if o.store.Revision() == before {
			break
		}
	}
	return nil
}

// Drained reports whether no eligible or delegated work remains.
func (o *Orchestrator) Drained() bool {
	return len(o.store.ReadyForExecution()) == 0 && len(o.store.NeedsDelegation()) == 0
}

// Summary returns task counts per lane and per status.
func (o *Orchestrator) Summary() map[string]int {
	return o.store.Summary()
}

// resolveWorker maps a task to its pooled worker. It returns false when the
// task carries no capability or none is registered; both are recovered
// locally by delegation routing, never by aborting the tick.
func (o *Orchestrator) resolveWorker(t *models.Task) (worker.Worker, bool) {
	if t.Capability == "" {
		return nil, false
	}
	w, err := o.registry.Ensure(t.Capability)
	if err != nil {
		o.logger.Log("no worker for capability %q (task %s): %v", t.Capability, t.ID, err)
		return nil, false
	}
	if !w.CanHandle(t) {
		o.logger.Log("worker %s declined task %s", w.Name(), t.ID)
		return nil, false
	}
	return w, true
}

// park moves a task without a resolvable worker to the delegation lane.
func (o *Orchestrator) park(t *models.Task) {
	o.progress("No capability for task %s, parking to delegation", t.Title)
	if err := o.store.Move(t.ID, models.LaneDelegation); err != nil {
		o.logger.Log("park task %s: %v", t.ID, err)
		return
	}
	o.emit(Event{
		Type:      EventTaskMoved,
		TaskID:    t.ID,
		TaskTitle: t.Title,
		Lane:      models.LaneDelegation,
		Status:    t.Status,
		Message:   "no capability resolved",
	})
}

// markDispatched records the in_progress transition and the assignee.
func (o *Orchestrator) markDispatched(t *models.Task, w worker.Worker) error {
	if err := o.store.SetStatus(t.ID, models.TaskStatusInProgress); err != nil {
		return err
	}
	if err := o.store.SetAssignee(t.ID, w.Name()); err != nil {
		return err
	}
	o.progress("Dispatching to %s: %s", w.Name(), t.Title)
	o.emit(Event{
		Type:      EventTaskDispatched,
		TaskID:    t.ID,
		TaskTitle: t.Title,
		Lane:      t.Lane,
		Status:    models.TaskStatusInProgress,
		Worker:    w.Name(),
	})
	return nil
}

// dispatch invokes the worker and records the outcome. A worker fault, or a
// non-terminal status report, marks the task failed and reroutes it to the
// delegation lane for re-inspection.
func (o *Orchestrator) dispatch(ctx context.Context, t *models.Task, w worker.Worker) {
	lock := o.capabilityLock(t.Capability)
	lock.Lock()
	status, err := w.Handle(ctx, t)
	lock.Unlock()

	if err == nil && !status.Terminal() {
		err = fmt.Errorf("worker %s returned non-terminal status %q", w.Name(), status)
	}

	if err != nil {
		o.progress("ERROR in worker %s: %v", w.Name(), err)
		o.setStatusLogged(t.ID, models.TaskStatusFailed)
		if moveErr := o.store.Move(t.ID, models.LaneDelegation); moveErr != nil {
			o.logger.Log("reroute task %s: %v", t.ID, moveErr)
		}
		o.emit(Event{
			Type:      EventTaskFailed,
			TaskID:    t.ID,
			TaskTitle: t.Title,
			Lane:      models.LaneDelegation,
			Status:    models.TaskStatusFailed,
			Worker:    w.Name(),
			Err:       err,
			Timestamp: time.Now(),
		})
		return
	}

	o.setStatusLogged(t.ID, status)
	o.progress("Task %s -> %s", shortID(t.ID), status)

	eventType := EventTaskDone
	if status == models.TaskStatusFailed {
		eventType = EventTaskFailed
	}
	o.emit(Event{
		Type:      eventType,
		TaskID:    t.ID,
		TaskTitle: t.Title,
		Lane:      t.Lane,
		Status:    status,
		Worker:    w.Name(),
		Timestamp: time.Now(),
	})
}

// setStatusLogged writes a status, logging instead of failing on a missing
// id; dispatch goroutines only ever see ids that came out of the store.
func (o *Orchestrator) setStatusLogged(id string, status models.TaskStatus) {
	if err := o.store.SetStatus(id, status); err != nil {
		o.logger.Log("set status of task %s: %v", id, err)
	}
}

// capabilityLock returns the dispatch lock for a capability.
func (o *Orchestrator) capabilityLock(capability string) *sync.Mutex {
	o.capMu.Lock()
	defer o.capMu.Unlock()

	lock, ok := o.capLocks[capability]
	if !ok {
		lock = &sync.Mutex{}
		o.capLocks[capability] = lock
	}
	return lock
}

// progress formats and delivers a sink notification.
func (o *Orchestrator) progress(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	o.sink.Progress(msg)
	o.logger.Log("%s", msg)
}

// emit delivers an event when an emitter is configured.
func (o *Orchestrator) emit(event Event) {
	if o.emitter == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.emitter.Emit(event)
}

// shortID abbreviates a uuid for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
