package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiqueue/aiq/internal/config"
	"github.com/aiqueue/aiq/internal/state"
	"github.com/aiqueue/aiq/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run's task snapshot",
	Long: `Display the task snapshot written by the most recent run.

Shows:
  - Task counts per lane and per status
  - Each task with its lane, status and assignee`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.State.DBPath
	if dbPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dbPath = state.DefaultDBPath(cwd)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No snapshot found. Run 'aiq run <goal>' first.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate snapshot database: %w", err)
	}

	counts, err := db.SummaryCounts()
	if err != nil {
		return fmt.Errorf("read summary counts: %w", err)
	}
	tasks, err := db.LoadTasks()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("Snapshot is empty. Run 'aiq run <goal>' first.")
		return nil
	}

	fmt.Printf("Snapshot: %s\n", dbPath)
	fmt.Printf("  lanes:    %s\n", formatCounts(counts, []string{"on_target", "delegation", "back_burner"}))
	fmt.Printf("  statuses: %s\n", formatCounts(counts, []string{"pending", "in_progress", "blocked", "done", "failed"}))
	fmt.Println()

	for _, lane := range []models.Lane{models.LaneOnTarget, models.LaneDelegation, models.LaneBackBurner} {
		displayLane(lane, tasks)
	}
	return nil
}

func displayLane(lane models.Lane, tasks []*models.Task) {
	var inLane []*models.Task
	for _, t := range tasks {
		if t.Lane == lane {
			inLane = append(inLane, t)
		}
	}
	if len(inLane) == 0 {
		return
	}

	fmt.Printf("%s:\n", lane)
	for _, t := range inLane {
		assignee := t.Assignee
		if assignee == "" {
			assignee = "-"
		}
		fmt.Printf("  [%s] %s (%s)\n", t.Status, t.Title, assignee)
	}
	fmt.Println()
}
