package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiqueue/aiq/internal/config"
	"github.com/aiqueue/aiq/internal/graph"
	"github.com/aiqueue/aiq/internal/planner"
	"github.com/aiqueue/aiq/pkg/models"
)

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Plan a goal without executing it",
	Long: `Plan the given goal into a dependency-chained task graph and print
the tasks in execution order. Nothing is dispatched and no snapshot is
written.

Examples:
  aiq plan "Publish a branded short-form video"`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	goal := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var rules planner.Rules
	if cfg.Planner.RulesPath != "" {
		rules, err = planner.LoadRules(cfg.Planner.RulesPath)
		if err != nil {
			return fmt.Errorf("load planner rules: %w", err)
		}
	}

	tasks := planner.New(rules).Plan(goal)
	if len(tasks) == 0 {
		fmt.Println("Goal produced no tasks.")
		return nil
	}

	g := graph.New()
	if err := g.Build(tasks); err != nil {
		return fmt.Errorf("validate plan: %w", err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return fmt.Errorf("order plan: %w", err)
	}

	fmt.Printf("Plan for %q (%d tasks):\n\n", goal, len(tasks))
	for i, id := range order {
		t := g.Task(id)
		fmt.Printf("%2d. [%s] %s", i+1, t.Lane, t.Title)
		if t.Capability != "" {
			fmt.Printf("  (%s)", t.Capability)
		}
		fmt.Println()
		if dependents := g.Dependents(id); len(dependents) > 0 {
			fmt.Printf("      unblocks %d task(s)\n", len(dependents))
		}
	}

	if parked := countLane(tasks, models.LaneBackBurner); parked > 0 {
		fmt.Printf("\n%d task(s) parked in back_burner.\n", parked)
	}
	return nil
}

func countLane(tasks []*models.Task, lane models.Lane) int {
	n := 0
	for _, t := range tasks {
		if t.Lane == lane {
			n++
		}
	}
	return n
}
