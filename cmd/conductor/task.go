package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage project tasks",
}

var (
	taskProject     int64
	taskNumber      string
	taskDescription string
	taskDependsOn   string
	taskPriority    int
	taskParallel    bool
	taskStep        string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the queue",
	Long: `Add a task to the project's queue.

Dependencies are given with --depends-on as task IDs ("1,2,3" or "[1, 2]")
or as a single task number. The task will not be dispatched until every
dependency has completed.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's tasks",
	RunE:  runTaskList,
}

func init() {
	taskCmd.PersistentFlags().Int64Var(&taskProject, "project", 1, "Project ID")

	taskAddCmd.Flags().StringVar(&taskNumber, "number", "", "Human-readable task number (e.g. 1.2)")
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskDependsOn, "depends-on", "", "Task IDs or task number this task depends on")
	taskAddCmd.Flags().IntVar(&taskPriority, "priority", 0, "Task priority (higher runs earlier among ready tasks)")
	taskAddCmd.Flags().BoolVar(&taskParallel, "parallel", true, "Whether the task may run alongside others")
	taskAddCmd.Flags().StringVar(&taskStep, "step", "", "Workflow step label")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	task := &models.Task{
		ProjectID:      taskProject,
		TaskNumber:     taskNumber,
		Title:          args[0],
		Description:    taskDescription,
		DependsOn:      taskDependsOn,
		Priority:       taskPriority,
		CanParallelize: taskParallel,
		WorkflowStep:   taskStep,
	}
	if err := db.CreateTask(task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	fmt.Printf("%s Created task %d: %s\n", color.GreenString("✓"), task.ID, task.Title)
	if task.DependsOn != "" {
		fmt.Printf("  depends on: %s\n", task.DependsOn)
	}
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, err := db.GetProjectTasks(taskProject)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks. Add one with 'conductor task add'.")
		return nil
	}

	for _, t := range tasks {
		line := fmt.Sprintf("%4d  %-12s  %s", t.ID, statusLabel(t.Status), t.Title)
		fmt.Println(line)
		if t.DependsOn != "" {
			fmt.Printf("      depends on %s\n", t.DependsOn)
		}
		if t.Status == models.TaskStatusFailed && t.Error != "" {
			fmt.Printf("      %s\n", color.RedString(t.Error))
		}
	}
	return nil
}

// statusLabel colors a task status for terminal output.
func statusLabel(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return color.GreenString(string(s))
	case models.TaskStatusFailed:
		return color.RedString(string(s))
	case models.TaskStatusInProgress, models.TaskStatusAssigned:
		return color.CyanString(string(s))
	case models.TaskStatusBlocked:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}
