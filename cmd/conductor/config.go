package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/conductor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("User config:    %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("Project config: %s\n", project)
	} else {
		fmt.Println("Project config: (none)")
	}
	fmt.Println()

	apiKey := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKey = "(set)"
	}
	fmt.Printf("anthropic.api_key:         %s\n", apiKey)
	if cfg.Anthropic.Model != "" {
		fmt.Printf("anthropic.model:           %s\n", cfg.Anthropic.Model)
	}
	fmt.Printf("anthropic.max_tokens:      %d\n", cfg.Anthropic.MaxTokens)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("coordination.max_concurrent: %d\n", cfg.Coordination.MaxConcurrent)
	fmt.Printf("coordination.max_retries:    %d\n", cfg.Coordination.MaxRetries)
	fmt.Printf("coordination.timeout:        %s\n", cfg.Coordination.Timeout)
	fmt.Printf("coordination.poll_interval:  %s\n", cfg.Coordination.PollInterval)
	fmt.Printf("logging.debug:               %t\n", cfg.Logging.Debug)

	return nil
}
