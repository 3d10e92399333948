package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forgeworks/conductor/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a Conductor project",
	Long: `Initialize a directory for use with Conductor.

This command sets up everything needed to run Conductor:
  - Creates the .conductor directory structure (state, logs, answers)
  - Creates and migrates the state database
  - Writes a .conductor.yaml configuration template
  - Adds .conductor entries to .gitignore if one exists

The directory argument is optional and defaults to the current directory.`,
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

	fmt.Printf("Initializing Conductor in %s...\n\n", absPath)

	conductorDir := filepath.Join(absPath, ".conductor")
	if _, err := os.Stat(conductorDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	for _, dir := range []string{
		conductorDir,
		filepath.Join(conductorDir, "logs"),
		filepath.Join(conductorDir, "answers"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .conductor directory structure", color.FgGreen)

	db, err := store.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("create state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}
	printStatus("✓", "Created state database", color.FgGreen)

	if err := writeProjectConfig(absPath); err != nil {
		return fmt.Errorf("write project config: %w", err)
	}
	printStatus("✓", "Created .conductor.yaml template", color.FgGreen)

	if err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	fmt.Printf("\n%s Conductor initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  conductor task add \"your first task\"")
	fmt.Println("  conductor run")
	return nil
}

// writeProjectConfig writes a commented .conductor.yaml template with the
// default values filled in. An existing file is never overwritten.
func writeProjectConfig(repoPath string) error {
	configPath := filepath.Join(repoPath, ".conductor.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	defaults := map[string]interface{}{
		"anthropic": map[string]interface{}{
			"api_key":         "${ANTHROPIC_API_KEY}",
			"max_tokens":      8192,
			"use_aws_bedrock": false,
		},
		"coordination": map[string]interface{}{
			"max_concurrent": 3,
			"max_retries":    3,
			"timeout":        "300s",
			"poll_interval":  "200ms",
		},
		"logging": map[string]interface{}{
			"debug": false,
		},
	}

	body, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}

	header := "# Conductor Project Configuration\n" +
		"# Overrides defaults from ~/.config/conductor/config.yaml\n\n"
	return os.WriteFile(configPath, append([]byte(header), body...), 0644)
}

// updateGitignore adds Conductor entries to an existing .gitignore.
func updateGitignore(repoPath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")
	data, err := os.ReadFile(gitignorePath)
	if err != nil {
		// No .gitignore, nothing to update.
		return nil
	}
	existing := string(data)

	entries := []string{
		".conductor/state.db*",
		".conductor/logs/",
		".conductor/answers/",
	}

	var missing []string
	for _, entry := range entries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(existing)
	if !strings.HasSuffix(existing, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# Conductor\n")
	for _, entry := range missing {
		b.WriteString(entry + "\n")
	}

	if err := os.WriteFile(gitignorePath, []byte(b.String()), 0644); err != nil {
		return err
	}
	printStatus("✓", "Updated .gitignore with Conductor entries", color.FgGreen)
	return nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
