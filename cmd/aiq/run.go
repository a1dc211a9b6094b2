package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiqueue/aiq/internal/config"
	"github.com/aiqueue/aiq/internal/orchestrator"
	"github.com/aiqueue/aiq/internal/planner"
	"github.com/aiqueue/aiq/internal/state"
	"github.com/aiqueue/aiq/internal/store"
	"github.com/aiqueue/aiq/internal/worker"
)

var (
	runMaxTicks int
	runNoSnap   bool
	runWatch    bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Plan a goal and drain the resulting task graph",
	Long: `Plan the given goal into a dependency-chained task graph and tick the
orchestrator until no eligible work remains.

Planner rules come from the configured rules file (planner.rules_path);
without one, the built-in content pipeline rules are used.

With --watch the process stays alive and re-plans the goal every time
the rules file changes.

Examples:
  aiq run "Publish a branded short-form video"
  aiq run --max-ticks 3 "Publish a branded short-form video"
  aiq run --watch "Publish a branded short-form video"`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 0, "Override the configured tick budget")
	runCmd.Flags().BoolVar(&runNoSnap, "no-snapshot", false, "Skip writing the state snapshot")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run the goal when the rules file changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	goal := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := worker.NewRegistry()
	if err := worker.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("register workers: %w", err)
	}

	logger, err := orchestrator.NewDebugLogger(cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logger.Close()

	maxTicks := cfg.Orchestrator.MaxTicks
	if runMaxTicks > 0 {
		maxTicks = runMaxTicks
	}

	if runWatch {
		return watchAndRun(cmd.Context(), cfg, goal, registry, logger, maxTicks)
	}
	return executeGoal(cmd.Context(), cfg, goal, registry, logger, maxTicks)
}

// executeGoal plans the goal into a fresh store, drains it, prints the
// summary, and persists the snapshot.
func executeGoal(ctx context.Context, cfg *config.Config, goal string, registry *worker.Registry, logger *orchestrator.DebugLogger, maxTicks int) error {
	var rules planner.Rules
	if cfg.Planner.RulesPath != "" {
		loaded, err := planner.LoadRules(cfg.Planner.RulesPath)
		if err != nil {
			return fmt.Errorf("load planner rules: %w", err)
		}
		rules = loaded
	}

	emitter := orchestrator.NewEventEmitter(cfg.Orchestrator.EventBuffer)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range emitter.Events() {
			logger.Log("%s", eventLine(ev))
		}
	}()
	defer func() {
		emitter.Close()
		<-drained
	}()

	taskStore := store.New()
	orch := orchestrator.New(taskStore, registry,
		orchestrator.WithPlanner(planner.New(rules)),
		orchestrator.WithSink(orchestrator.NewWriterSink(os.Stdout)),
		orchestrator.WithEmitter(emitter),
		orchestrator.WithLogger(logger),
	)

	if err := orch.IngestGoal(goal); err != nil {
		return err
	}
	if err := orch.Run(ctx, maxTicks); err != nil {
		return err
	}

	printSummary(orch.Summary())

	if !runNoSnap {
		if err := snapshot(cfg, taskStore); err != nil {
			return err
		}
	}
	return nil
}

// watchAndRun executes the goal once, then re-executes it on every change
// to the rules file until the context is cancelled.
func watchAndRun(ctx context.Context, cfg *config.Config, goal string, registry *worker.Registry, logger *orchestrator.DebugLogger, maxTicks int) error {
	if cfg.Planner.RulesPath == "" {
		return fmt.Errorf("--watch requires planner.rules_path to be configured")
	}

	changes := make(chan struct{}, 1)
	watcher, err := config.WatchRules(cfg.Planner.RulesPath, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		if err := executeGoal(ctx, cfg, goal, registry, logger, maxTicks); err != nil {
			// A broken rules edit should not kill the watch loop.
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		}
		fmt.Printf("\nWatching %s for changes (Ctrl-C to stop)...\n", cfg.Planner.RulesPath)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			fmt.Println("Rules changed, re-running goal.")
		}
	}
}

// snapshot persists the final task state for the status command.
func snapshot(cfg *config.Config, taskStore *store.TaskStore) error {
	dbPath := cfg.State.DBPath
	if dbPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dbPath = state.DefaultDBPath(cwd)
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate snapshot database: %w", err)
	}
	if err := db.SaveSnapshot(taskStore.All()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// eventLine renders an orchestrator event as one debug log line.
func eventLine(ev orchestrator.Event) string {
	line := fmt.Sprintf("event %s", ev.Type)
	if ev.TaskTitle != "" {
		line += fmt.Sprintf(" task=%q", ev.TaskTitle)
	}
	if ev.Worker != "" {
		line += fmt.Sprintf(" worker=%s", ev.Worker)
	}
	if ev.Lane != "" {
		line += fmt.Sprintf(" lane=%s", ev.Lane)
	}
	if ev.Status != "" {
		line += fmt.Sprintf(" status=%s", ev.Status)
	}
	if ev.Message != "" {
		line += fmt.Sprintf(" msg=%q", ev.Message)
	}
	if ev.Err != nil {
		line += fmt.Sprintf(" err=%q", ev.Err)
	}
	return line
}

func printSummary(counts map[string]int) {
	fmt.Println("\nSummary:")

	lanes := []string{"on_target", "delegation", "back_burner"}
	statuses := []string{"pending", "in_progress", "blocked", "done", "failed"}

	fmt.Printf("  lanes:    %s\n", formatCounts(counts, lanes))
	fmt.Printf("  statuses: %s\n", formatCounts(counts, statuses))
}

func formatCounts(counts map[string]int, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counts[key]))
	}
	return strings.Join(parts, " ")
}
