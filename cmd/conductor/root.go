package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Multi-agent task coordination engine",
	Long: `Conductor schedules a project's tasks across a pool of Claude-backed
agents, respecting dependency order, human blockers, and concurrency limits.

Typical workflow:
  conductor init                     # set up .conductor in this repo
  conductor task add "build the API" # queue work
  conductor run                      # execute everything
  conductor status                   # inspect progress`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(blockerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// openProjectDB opens and migrates the state database for the current
// working directory.
func openProjectDB() (*store.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	db, err := store.OpenProject(cwd)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
