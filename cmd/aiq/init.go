package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize an aiq project",
	Long: `Initialize a directory for use with aiq.

This command sets up everything needed to run aiq:
  - Creates the .aiq state directory
  - Creates a .aiq.yaml project config template
  - Creates an example rules.yaml with planner rules

The directory argument is optional and defaults to the current directory.

Examples:
  aiq init              # Initialize current directory
  aiq init ./myproject  # Initialize specific directory
  aiq init --force      # Reinitialize even if already set up`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing aiq in %s...\n\n", absPath)

	aiqDir := filepath.Join(absPath, ".aiq")
	if _, err := os.Stat(aiqDir); err == nil && !initForce {
		fmt.Printf("Directory already initialized. Use --force to reinitialize.\n")
		return nil
	}

	if err := os.MkdirAll(aiqDir, 0755); err != nil {
		return fmt.Errorf("creating .aiq directory: %w", err)
	}
	printStatus("✓", "Created .aiq directory", color.FgGreen)

	configPath := filepath.Join(absPath, ".aiq.yaml")
	if err := writeIfAbsent(configPath, projectConfigTemplate, initForce); err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	printStatus("✓", "Created .aiq.yaml template", color.FgGreen)

	rulesPath := filepath.Join(absPath, "rules.yaml")
	if err := writeIfAbsent(rulesPath, rulesTemplate, initForce); err != nil {
		return fmt.Errorf("creating example rules: %w", err)
	}
	printStatus("✓", "Created example rules.yaml", color.FgGreen)

	fmt.Printf("\n%s aiq initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  1. Adjust rules.yaml to describe your pipeline")
	fmt.Println()
	fmt.Println("  2. Run aiq:")
	fmt.Println("     aiq run \"your goal here\"")
	fmt.Println()
	fmt.Println("  3. Inspect the result:")
	fmt.Println("     aiq status")

	return nil
}

// writeIfAbsent writes content to path unless the file already exists,
// in which case it is left alone (or overwritten with force).
func writeIfAbsent(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// printStatus prints a colored status line.
func printStatus(symbol, message string, c color.Attribute) {
	color.New(c).Printf("%s ", symbol)
	fmt.Println(message)
}

const projectConfigTemplate = `# aiq project configuration
planner:
  # Planner rules file; leave empty for the built-in content pipeline.
  rules_path: rules.yaml

orchestrator:
  # 0 means tick until no task changes state.
  max_ticks: 16
  event_buffer: 100

state:
  # Empty means .aiq/state.db in the working directory.
  db_path: ""

log:
  # Empty disables the debug log.
  path: ""
`

const rulesTemplate = `# Planner rules. Milestones are listed most-future first; the planner
# reverses them so earlier milestones become dependencies of later ones.
milestones:
  - name: Publish asset
    tasks:
      - title: "Content: Write title/description"
        capability: content
      - title: "Content: Schedule publishing"
        lane: delegation
        capability: content
  - name: Produce final asset
    tasks:
      - title: "Content: Edit draft into final"
        capability: content
  - name: Research & outline
    tasks:
      - title: "Research: Background brief"
        capability: research
      - title: "Content: Create outline"
        lane: delegation
        capability: content
`
