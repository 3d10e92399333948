package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/forgeworks/conductor/pkg/models"
)

// ClaudeConfig contains configuration for creating a Claude-backed executor.
type ClaudeConfig struct {
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// MaxTokens caps the response size per call.
	MaxTokens int64
	// UseAWSBedrock routes requests through AWS Bedrock instead of the API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// ClaudeExecutor executes tasks against the Anthropic Messages API. One
// executor instance is created per pooled agent; the agent type selects the
// system prompt.
type ClaudeExecutor struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	system    string
}

// NewClaudeExecutor creates an executor for the given worker type.
func NewClaudeExecutor(agentType string, cfg ClaudeConfig) (*ClaudeExecutor, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &ClaudeExecutor{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		system:    systemPromptFor(agentType),
	}, nil
}

// Execute sends the task to the model and returns its output. The full task
// record is rendered into the prompt.
func (e *ClaudeExecutor) Execute(ctx context.Context, task *models.Task) (*Result, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: e.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(taskPrompt(task))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("execute task %d: %w", task.ID, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}

	return &Result{
		Output:     sb.String(),
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// taskPrompt renders the task record for the worker.
func taskPrompt(task *models.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s (id %d): %s\n\n", task.TaskNumber, task.ID, task.Title)
	if task.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", task.Description)
	}
	if task.WorkflowStep != "" {
		fmt.Fprintf(&sb, "Workflow step: %s\n", task.WorkflowStep)
	}
	sb.WriteString("Complete this task and report what you did.")
	return sb.String()
}

// systemPromptFor returns the system prompt for a worker type. Unknown types
// get the backend prompt.
func systemPromptFor(agentType string) string {
	switch agentType {
	case "frontend":
		return "You are a frontend engineer. Implement UI components, styling, and client-side logic for the given task."
	case "test":
		return "You are a test engineer. Write and run tests that verify the behavior described in the given task."
	case "review":
		return "You are a code reviewer. Review the work described in the given task for correctness, clarity, and edge cases."
	default:
		return "You are a backend engineer. Implement server-side logic, APIs, and data handling for the given task."
	}
}

// ClaudeExecutorFactory creates Claude executors per worker type.
type ClaudeExecutorFactory struct {
	Config ClaudeConfig
}

// NewExecutor creates a Claude executor for the given agent type.
func (f *ClaudeExecutorFactory) NewExecutor(agentType string) (Executor, error) {
	return NewClaudeExecutor(agentType, f.Config)
}

// Compile-time interface checks.
var (
	_ Executor        = (*ClaudeExecutor)(nil)
	_ ExecutorFactory = (*ClaudeExecutorFactory)(nil)
)
