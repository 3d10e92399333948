package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/internal/graph"
	"github.com/forgeworks/conductor/internal/store"
	"github.com/forgeworks/conductor/pkg/models"
)

var statusProject int64

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show project task state",
	Long: `Display the state of the project's tasks.

Shows:
  - Task counts by status
  - Tasks ready to run and tasks waiting on dependencies
  - Pending blockers awaiting answers`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Int64Var(&statusProject, "project", 1, "Project ID")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if _, err := os.Stat(store.ProjectDBPath(cwd)); os.IsNotExist(err) {
		fmt.Println("No project here. Run 'conductor init' to set one up.")
		return nil
	}

	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, err := db.GetProjectTasks(statusProject)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks. Add one with 'conductor task add'.")
		return nil
	}

	counts := make(map[models.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	fmt.Printf("Project %d: %d tasks\n", statusProject, len(tasks))
	for _, s := range []models.TaskStatus{
		models.TaskStatusPending,
		models.TaskStatusAssigned,
		models.TaskStatusInProgress,
		models.TaskStatusCompleted,
		models.TaskStatusFailed,
		models.TaskStatusBlocked,
	} {
		if counts[s] > 0 {
			fmt.Printf("  %-12s %d\n", statusLabel(s), counts[s])
		}
	}

	// Build the graph to show what is runnable right now.
	g := graph.New()
	if err := g.Build(tasks); err != nil {
		fmt.Printf("\n%s %v\n", color.RedString("Graph error:"), err)
		return nil
	}

	if ready := g.ReadyTasks(true); len(ready) > 0 {
		fmt.Printf("\nReady to run: ")
		for i, id := range ready {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%d", id)
		}
		fmt.Println()
	}
	if blocked := g.BlockedTasks(); len(blocked) > 0 {
		fmt.Println("Waiting on dependencies:")
		for id, deps := range blocked {
			fmt.Printf("  %d needs %v\n", id, deps)
		}
	}

	printExecutionPlan(g)

	blockers, err := db.ListPendingBlockers(statusProject)
	if err != nil {
		return fmt.Errorf("list blockers: %w", err)
	}
	if len(blockers) > 0 {
		fmt.Printf("\n%s\n", color.YellowString("Pending blockers:"))
		for _, b := range blockers {
			fmt.Printf("  %s (task %d, %s): %s\n", b.ID, b.TaskID, b.Type, b.Question)
		}
	}

	return nil
}

// printExecutionPlan groups incomplete tasks into stages by dependency depth.
func printExecutionPlan(g *graph.DependencyGraph) {
	order, err := g.TopologicalSort()
	if err != nil {
		return
	}

	stages := make(map[int][]int64)
	maxDepth := 0
	for _, id := range order {
		if g.IsComplete(id) {
			continue
		}
		d := g.DependencyDepth(id)
		stages[d] = append(stages[d], id)
		if d > maxDepth {
			maxDepth = d
		}
	}
	if len(stages) == 0 {
		return
	}

	fmt.Println("\nExecution plan:")
	for d := 0; d <= maxDepth; d++ {
		if len(stages[d]) > 0 {
			fmt.Printf("  stage %d: %v\n", d+1, stages[d])
		}
	}
}
