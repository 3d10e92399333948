package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/pkg/models"
)

var blockerCmd = &cobra.Command{
	Use:   "blocker",
	Short: "Manage blocking questions",
}

var (
	blockerProject int64
	blockerTask    int64
	blockerAsync   bool
)

var blockerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending blockers",
	RunE:  runBlockerList,
}

var blockerRaiseCmd = &cobra.Command{
	Use:   "raise <question>",
	Short: "Raise a blocker against a task",
	Long: `Raise a blocking question against a task.

SYNC blockers (the default) hold the task and everything that depends on it
until answered. ASYNC blockers are informational and never hold work.`,
	Args: cobra.ExactArgs(1),
	RunE: runBlockerRaise,
}

var blockerAnswerCmd = &cobra.Command{
	Use:   "answer <blocker-id> <answer>",
	Short: "Answer a pending blocker",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBlockerAnswer,
}

func init() {
	blockerCmd.PersistentFlags().Int64Var(&blockerProject, "project", 1, "Project ID")
	blockerRaiseCmd.Flags().Int64Var(&blockerTask, "task", 0, "Task ID the blocker applies to")
	blockerRaiseCmd.Flags().BoolVar(&blockerAsync, "async", false, "Raise an informational (non-gating) blocker")
	blockerRaiseCmd.MarkFlagRequired("task")

	blockerCmd.AddCommand(blockerListCmd)
	blockerCmd.AddCommand(blockerRaiseCmd)
	blockerCmd.AddCommand(blockerAnswerCmd)
}

func runBlockerList(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	blockers, err := db.ListPendingBlockers(blockerProject)
	if err != nil {
		return fmt.Errorf("list blockers: %w", err)
	}
	if len(blockers) == 0 {
		fmt.Println("No pending blockers.")
		return nil
	}

	for _, b := range blockers {
		gate := color.YellowString(string(b.Type))
		if b.Type == models.BlockerTypeAsync {
			gate = string(b.Type)
		}
		fmt.Printf("%s  task %d  %s\n", b.ID, b.TaskID, gate)
		fmt.Printf("  %s\n", b.Question)
	}
	fmt.Printf("\nAnswer with: conductor blocker answer <id> <answer>\n")
	return nil
}

func runBlockerRaise(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	typ := models.BlockerTypeSync
	if blockerAsync {
		typ = models.BlockerTypeAsync
	}

	b := &models.Blocker{
		TaskID:    blockerTask,
		ProjectID: blockerProject,
		Type:      typ,
		Question:  args[0],
	}
	if err := db.CreateBlocker(b); err != nil {
		return fmt.Errorf("create blocker: %w", err)
	}

	fmt.Printf("%s Raised %s blocker %s against task %d\n", color.GreenString("✓"), typ, b.ID, b.TaskID)
	return nil
}

func runBlockerAnswer(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	id := args[0]
	answer := strings.Join(args[1:], " ")
	if err := db.AnswerBlocker(id, answer); err != nil {
		return fmt.Errorf("answer blocker: %w", err)
	}

	fmt.Printf("%s Blocker %s resolved\n", color.GreenString("✓"), id)
	return nil
}
