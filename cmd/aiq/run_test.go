package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aiqueue/aiq/internal/config"
	"github.com/aiqueue/aiq/internal/orchestrator"
	"github.com/aiqueue/aiq/internal/state"
	"github.com/aiqueue/aiq/internal/worker"
	"github.com/aiqueue/aiq/pkg/models"
)

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[string]int
		keys     []string
		expected string
	}{
		{
			name:     "all keys present",
			counts:   map[string]int{"done": 3, "failed": 1},
			keys:     []string{"done", "failed"},
			expected: "done=3 failed=1",
		},
		{
			name:     "missing keys render as zero",
			counts:   map[string]int{"done": 2},
			keys:     []string{"pending", "done"},
			expected: "pending=0 done=2",
		},
		{
			name:     "declared order kept",
			counts:   map[string]int{"a": 1, "b": 2},
			keys:     []string{"b", "a"},
			expected: "b=2 a=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatCounts(tt.counts, tt.keys)
			if result != tt.expected {
				t.Errorf("formatCounts() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestEventLine(t *testing.T) {
	tests := []struct {
		name     string
		event    orchestrator.Event
		expected string
	}{
		{
			name:     "bare event",
			event:    orchestrator.Event{Type: orchestrator.EventGoalIngested},
			expected: "event goal_ingested",
		},
		{
			name: "dispatch event",
			event: orchestrator.Event{
				Type:      orchestrator.EventTaskDispatched,
				TaskTitle: "Research: Background brief",
				Worker:    "research_worker",
				Lane:      models.LaneOnTarget,
				Status:    models.TaskStatusInProgress,
			},
			expected: `event task_dispatched task="Research: Background brief" worker=research_worker lane=on_target status=in_progress`,
		},
		{
			name: "failure event carries the error",
			event: orchestrator.Event{
				Type:      orchestrator.EventTaskFailed,
				TaskTitle: "Render",
				Err:       errors.New("boom"),
			},
			expected: `event task_failed task="Render" err="boom"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eventLine(tt.event)
			if result != tt.expected {
				t.Errorf("eventLine() = %q, want %q", result, tt.expected)
			}
		})
	}
}

// A full run must stream its events into the debug log and leave a snapshot
// behind for the status command.
func TestExecuteGoalWritesEventsAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Orchestrator.EventBuffer = 32
	cfg.State.DBPath = filepath.Join(dir, "state.db")
	cfg.Log.Path = filepath.Join(dir, "debug.log")

	registry := worker.NewRegistry()
	if err := worker.RegisterBuiltins(registry); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Log.Path)
	if err != nil {
		t.Fatalf("NewDebugLogger failed: %v", err)
	}

	if err := executeGoal(context.Background(), cfg, "Publish a video", registry, logger, 0); err != nil {
		t.Fatalf("executeGoal failed: %v", err)
	}
	logger.Close()

	logData, err := os.ReadFile(cfg.Log.Path)
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	logText := string(logData)
	for _, want := range []string{"event goal_ingested", "event task_dispatched", "event task_done"} {
		if !strings.Contains(logText, want) {
			t.Errorf("debug log missing %q", want)
		}
	}

	db, err := state.Open(cfg.State.DBPath)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer db.Close()
	tasks, err := db.LoadTasks()
	if err != nil {
		t.Fatalf("load snapshot tasks: %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("snapshot holds %d tasks, want 5", len(tasks))
	}
	for _, task := range tasks {
		if task.Status != models.TaskStatusDone {
			t.Errorf("task %q status = %q, want done", task.Title, task.Status)
		}
	}
}
