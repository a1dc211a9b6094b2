package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aiq",
	Short: "Goal-to-task planner and three-lane orchestrator",
	Long: `aiq turns a free-text goal into a dependency-chained task graph and
drains it across three lanes: on_target work is dispatched to
capability-matched workers, delegation work is escalated or retried, and
back_burner work is parked until someone promotes it.

Core capabilities:
- Backward planning: milestones from the final outcome to the first prerequisite
- Full-batch dependency chaining between milestones
- Capability registry with a pooled worker per capability
- Tick-based dispatch with per-task failure recovery`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
