package orchestrator

import (
	"strings"
	"testing"
)

func TestEventEmitterDeliversInOrder(t *testing.T) {
	e := NewEventEmitter(4)
	e.Emit(Event{Type: EventTaskDispatched, TaskID: "task-1"})
	e.Emit(Event{Type: EventTaskDone, TaskID: "task-1"})
	e.Close()

	var types []EventType
	for event := range e.Events() {
		types = append(types, event.Type)
	}
	if len(types) != 2 || types[0] != EventTaskDispatched || types[1] != EventTaskDone {
		t.Errorf("received %v, want [task_dispatched task_done]", types)
	}
}

func TestEventEmitterDropsWhenFull(t *testing.T) {
	e := NewEventEmitter(1)
	e.Emit(Event{Type: EventTaskDispatched})
	// No receiver: the second emit times out and is dropped instead of
	// blocking the tick.
	e.Emit(Event{Type: EventTaskDone})

	if e.DroppedCount() != 1 {
		t.Errorf("DroppedCount() = %d, want 1", e.DroppedCount())
	}
}

func TestWriterSink(t *testing.T) {
	var buf strings.Builder
	s := NewWriterSink(&buf)
	s.Progress("Dispatching to research_worker: Research: Background brief")

	out := buf.String()
	if !strings.HasPrefix(out, "[aiq] ") {
		t.Errorf("output %q missing [aiq] prefix", out)
	}
	if !strings.Contains(out, "research_worker") {
		t.Errorf("output %q missing message body", out)
	}
}
