package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/internal/agent"
	"github.com/forgeworks/conductor/internal/answers"
	"github.com/forgeworks/conductor/internal/config"
	"github.com/forgeworks/conductor/internal/coordinator"
	"github.com/forgeworks/conductor/internal/pool"
)

var (
	runProject       int64
	runMaxConcurrent int
	runMaxRetries    int
	runTimeout       time.Duration
	runDebug         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all pending tasks for a project",
	Long: `Run the coordination loop over the project's task graph.

Tasks are dispatched to pooled Claude agents in dependency order, up to the
concurrency limit. Failed tasks are retried; tasks held by an unanswered
SYNC blocker wait until the blocker is answered, either with
'conductor blocker answer' or by dropping a file into .conductor/answers/.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int64Var(&runProject, "project", 1, "Project ID")
	runCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "Concurrent task executions (overrides config)")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", -1, "Retry budget per task (overrides config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Wall-clock limit for the run (overrides config)")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Write a debug log under .conductor/logs")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunFlags(cfg)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := coordinator.NopLogger()
	if cfg.Logging.Debug {
		logger = coordinator.NewDebugLoggerForProject(cwd)
	}
	defer logger.Close()

	factory := &agent.ClaudeExecutorFactory{Config: agent.ClaudeConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		MaxTokens:     cfg.Anthropic.MaxTokens,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}}
	agents := pool.New(factory)

	// Resolve blockers from answer files dropped while the run is active.
	watcher, err := answers.NewWatcher(cwd, db)
	if err != nil {
		return fmt.Errorf("start answers watcher: %w", err)
	}
	watcher.SetDebugLog(logger.Log)
	defer watcher.Close()

	opts := []coordinator.Option{
		coordinator.WithMaxConcurrent(cfg.Coordination.MaxConcurrent),
		coordinator.WithMaxRetries(cfg.Coordination.MaxRetries),
		coordinator.WithTimeout(cfg.Coordination.Timeout),
		coordinator.WithPollInterval(cfg.Coordination.PollInterval),
		coordinator.WithLogger(logger),
	}

	// Optional keyword overrides for the agent-type classifier.
	if cl, err := coordinator.LoadKeywordClassifier(filepath.Join(cwd, ".conductor", "agents.yaml")); err == nil {
		opts = append(opts, coordinator.WithClassifier(cl))
	}

	c := coordinator.New(db, agents, opts...)

	fmt.Printf("Running project %d (max %d concurrent, %d retries, %s timeout)...\n\n",
		runProject, cfg.Coordination.MaxConcurrent, cfg.Coordination.MaxRetries, cfg.Coordination.Timeout)

	summary, err := c.Run(context.Background(), runProject)
	if err != nil {
		printSummary(summary)
		switch {
		case errors.Is(err, coordinator.ErrDeadlock):
			fmt.Printf("\n%s %v\n", color.RedString("Deadlock:"), err)
			fmt.Println("Answer pending blockers with 'conductor blocker answer' and re-run.")
			return nil
		case errors.Is(err, coordinator.ErrTimeout):
			return fmt.Errorf("run timed out after %s", cfg.Coordination.Timeout)
		default:
			return err
		}
	}

	printSummary(summary)
	return nil
}

// applyRunFlags overlays command-line flags onto the loaded config.
func applyRunFlags(cfg *config.Config) {
	if runMaxConcurrent > 0 {
		cfg.Coordination.MaxConcurrent = runMaxConcurrent
	}
	if runMaxRetries >= 0 {
		cfg.Coordination.MaxRetries = runMaxRetries
	}
	if runTimeout > 0 {
		cfg.Coordination.Timeout = runTimeout
	}
	if runDebug {
		cfg.Logging.Debug = true
	}
}

func printSummary(s *coordinator.Summary) {
	if s == nil {
		return
	}
	fmt.Println("Run summary:")
	fmt.Printf("  Tasks:      %d\n", s.TotalTasks)
	fmt.Printf("  Completed:  %s\n", color.GreenString("%d", s.Completed))
	if s.Failed > 0 {
		fmt.Printf("  Failed:     %s\n", color.RedString("%d", s.Failed))
	} else {
		fmt.Printf("  Failed:     %d\n", s.Failed)
	}
	fmt.Printf("  Retries:    %d\n", s.Retries)
	fmt.Printf("  Iterations: %d\n", s.Iterations)
	fmt.Printf("  Elapsed:    %s\n", s.Elapsed.Round(time.Millisecond))
}
