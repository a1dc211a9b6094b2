package planner

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/aiqueue/aiq/pkg/models"
)

// Rules supplies the goal decomposition and milestone expansion the planner
// runs. Implementations must be deterministic: the same goal always yields
// the same milestones and the same task shapes.
type Rules interface {
	// Decompose returns milestone labels ordered from final outcome to
	// first prerequisite.
	Decompose(goal string) []string
	// Expand translates a milestone into concrete tasks. Each task carries
	// its capability tag and initial lane; ids and dependencies are filled
	// in by the planner.
	Expand(milestone, goal string) []*models.Task
}

// taskSpec describes one task of a milestone in a rules file.
type taskSpec struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Lane        string            `yaml:"lane"`
	Capability  string            `yaml:"capability"`
	Params      map[string]string `yaml:"params"`
}

// milestoneSpec describes one milestone in a rules file.
type milestoneSpec struct {
	Name  string     `yaml:"name"`
	Tasks []taskSpec `yaml:"tasks"`
}

// rulesFile is the on-disk structure of a rules.yaml.
type rulesFile struct {
	// Milestones are listed most-future first, matching Decompose order.
	Milestones []milestoneSpec `yaml:"milestones"`
}

// FileRules are planner rules loaded from a YAML file. Every goal decomposes
// into the same fixed milestone list; expansion follows the per-milestone
// task specs.
type FileRules struct {
	milestones []milestoneSpec
	expansions map[string][]taskSpec
}

// LoadRules reads and validates a rules YAML file.
func LoadRules(path string) (*FileRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates rules YAML.
func ParseRules(data []byte) (*FileRules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(f.Milestones) == 0 {
		return nil, fmt.Errorf("rules file defines no milestones")
	}

	r := &FileRules{expansions: make(map[string][]taskSpec)}
	for _, m := range f.Milestones {
		if m.Name == "" {
			return nil, fmt.Errorf("rules file contains a milestone without a name")
		}
		if _, dup := r.expansions[m.Name]; dup {
			return nil, fmt.Errorf("rules file defines milestone %q twice", m.Name)
		}
		for _, spec := range m.Tasks {
			if spec.Title == "" {
				return nil, fmt.Errorf("milestone %q: task without a title", m.Name)
			}
			if spec.Lane != "" && !models.Lane(spec.Lane).Valid() {
				return nil, fmt.Errorf("milestone %q: task %q: unknown lane %q", m.Name, spec.Title, spec.Lane)
			}
		}
		r.milestones = append(r.milestones, m)
		r.expansions[m.Name] = m.Tasks
	}
	return r, nil
}

// Decompose returns the configured milestones, most-future first.
func (r *FileRules) Decompose(goal string) []string {
	names := make([]string, 0, len(r.milestones))
	for _, m := range r.milestones {
		names = append(names, m.Name)
	}
	return names
}

// Expand builds the configured tasks for a milestone. Milestones without an
// expansion fall through to the planner's back-burner placeholder.
func (r *FileRules) Expand(milestone, goal string) []*models.Task {
	specs, ok := r.expansions[milestone]
	if !ok || len(specs) == 0 {
		return nil
	}

	tasks := make([]*models.Task, 0, len(specs))
	for _, spec := range specs {
		lane := models.Lane(spec.Lane)
		if spec.Lane == "" {
			lane = models.LaneOnTarget
		}
		var params map[string]string
		if len(spec.Params) > 0 {
			params = make(map[string]string, len(spec.Params))
			for k, v := range spec.Params {
				params[k] = v
			}
		}
		tasks = append(tasks, &models.Task{
			Title:       spec.Title,
			Description: spec.Description,
			Lane:        lane,
			Capability:  spec.Capability,
			Params:      params,
		})
	}
	return tasks
}

// ContentPipelineRules returns the default rules for a content production
// pipeline: publish depends on producing the final asset, which depends on
// research and outlining.
type ContentPipelineRules struct{}

// Decompose returns the content pipeline milestones, most-future first.
func (ContentPipelineRules) Decompose(goal string) []string {
	return []string{
		"Publish asset",
		"Produce final asset",
		"Research & outline",
	}
}

// Expand translates a content pipeline milestone into its tasks.
func (ContentPipelineRules) Expand(milestone, goal string) []*models.Task {
	switch milestone {
	case "Publish asset":
		return []*models.Task{
			{Title: "Content: Write title/description", Lane: models.LaneOnTarget, Capability: "content"},
			{Title: "Content: Schedule publishing", Lane: models.LaneDelegation, Capability: "content"},
		}
	case "Produce final asset":
		return []*models.Task{
			{Title: "Content: Edit draft into final", Lane: models.LaneOnTarget, Capability: "content"},
		}
	case "Research & outline":
		return []*models.Task{
			{Title: "Research: Background brief", Lane: models.LaneOnTarget, Capability: "research"},
			{Title: "Content: Create outline", Lane: models.LaneDelegation, Capability: "content"},
		}
	default:
		return nil
	}
}
