package graph

import (
	"errors"
	"testing"

	"github.com/aiqueue/aiq/pkg/models"
)

func task(id string, deps ...string) *models.Task {
	return &models.Task{ID: id, Title: id, DependsOn: deps}
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{task("a", "missing")})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{
		task("a", "b"),
		task("b", "c"),
		task("c", "a"),
	})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	g := New()
	tasks := []*models.Task{
		task("publish", "edit"),
		task("edit", "brief", "outline"),
		task("brief"),
		task("outline"),
	}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build: %v", err)
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(order) != len(tasks) {
		t.Fatalf("expected %d ids, got %d", len(tasks), len(order))
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, tk := range tasks {
		for _, dep := range tk.DependsOn {
			if pos[dep] >= pos[tk.ID] {
				t.Errorf("dependency %s sorted after %s", dep, tk.ID)
			}
		}
	}
}

func TestDependents(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{
		task("title", "edit"),
		task("schedule", "edit"),
		task("edit"),
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := g.Dependents("edit")
	want := []string{"title", "schedule"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dependent %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if deps := g.Dependents("title"); len(deps) != 0 {
		t.Errorf("expected no dependents for leaf task, got %v", deps)
	}
}

func TestSizeAndTaskLookup(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{task("a"), task("b", "a")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Size() != 2 {
		t.Errorf("expected size 2, got %d", g.Size())
	}
	if g.Task("a") == nil {
		t.Error("expected task a to be present")
	}
	if g.Task("nope") != nil {
		t.Error("expected nil for unknown task")
	}
}
