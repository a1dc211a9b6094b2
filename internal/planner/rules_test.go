package planner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aiqueue/aiq/pkg/models"
)

const sampleRules = `
milestones:
  - name: Publish asset
    tasks:
      - title: "Content: Write title/description"
        lane: on_target
        capability: content
      - title: "Content: Schedule publishing"
        lane: delegation
        capability: content
  - name: Produce final asset
    tasks:
      - title: "Content: Edit draft into final"
        lane: on_target
        capability: content
        params:
          format: short-form
  - name: Research & outline
    tasks:
      - title: "Research: Background brief"
        lane: on_target
        capability: research
`

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(sampleRules))
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}

	milestones := rules.Decompose("goal")
	want := []string{"Publish asset", "Produce final asset", "Research & outline"}
	if len(milestones) != len(want) {
		t.Fatalf("Decompose() = %v, want %v", milestones, want)
	}
	for i := range want {
		if milestones[i] != want[i] {
			t.Errorf("milestone %d = %q, want %q", i, milestones[i], want[i])
		}
	}

	tasks := rules.Expand("Produce final asset", "goal")
	if len(tasks) != 1 {
		t.Fatalf("Expand() returned %d tasks, want 1", len(tasks))
	}
	if tasks[0].Capability != "content" {
		t.Errorf("capability = %q, want content", tasks[0].Capability)
	}
	if tasks[0].Lane != models.LaneOnTarget {
		t.Errorf("lane = %q, want on_target", tasks[0].Lane)
	}
	if tasks[0].Param("format") != "short-form" {
		t.Errorf("param format = %q, want short-form", tasks[0].Param("format"))
	}
}

func TestParseRulesUnknownLane(t *testing.T) {
	bad := `
milestones:
  - name: M
    tasks:
      - title: t
        lane: side_quest
`
	if _, err := ParseRules([]byte(bad)); err == nil || !strings.Contains(err.Error(), "unknown lane") {
		t.Fatalf("expected unknown lane error, got %v", err)
	}
}

func TestParseRulesEmpty(t *testing.T) {
	if _, err := ParseRules([]byte("milestones: []")); err == nil {
		t.Fatal("expected error for empty milestone list")
	}
}

func TestParseRulesDuplicateMilestone(t *testing.T) {
	bad := `
milestones:
  - name: M
    tasks: [{title: a}]
  - name: M
    tasks: [{title: b}]
`
	if _, err := ParseRules([]byte(bad)); err == nil {
		t.Fatal("expected error for duplicate milestone")
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(sampleRules), 0644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules.Decompose("goal")) != 3 {
		t.Errorf("Decompose() = %v, want 3 milestones", rules.Decompose("goal"))
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}

func TestExpandUnknownMilestoneReturnsNil(t *testing.T) {
	rules, err := ParseRules([]byte(sampleRules))
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if tasks := rules.Expand("Mystery", "goal"); tasks != nil {
		t.Errorf("Expand(unknown) = %v, want nil", tasks)
	}
}
