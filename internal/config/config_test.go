package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
anthropic:
  api_key: test-key
  use_aws_bedrock: true
  aws_region: us-west-2
coordination:
  max_concurrent: 5
  max_retries: 2
  timeout: 120s
  poll_interval: 50ms
logging:
  debug: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("api key = %q, want test-key", cfg.Anthropic.APIKey)
	}
	if !cfg.Anthropic.UseAWSBedrock || cfg.Anthropic.AWSRegion != "us-west-2" {
		t.Errorf("bedrock settings = %+v", cfg.Anthropic)
	}
	if cfg.Coordination.MaxConcurrent != 5 || cfg.Coordination.MaxRetries != 2 {
		t.Errorf("coordination limits = %+v", cfg.Coordination)
	}
	if cfg.Coordination.Timeout != 120*time.Second {
		t.Errorf("timeout = %s, want 120s", cfg.Coordination.Timeout)
	}
	if cfg.Coordination.PollInterval != 50*time.Millisecond {
		t.Errorf("poll interval = %s, want 50ms", cfg.Coordination.PollInterval)
	}
	if !cfg.Logging.Debug {
		t.Error("debug logging should be enabled")
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Coordination.MaxConcurrent != 3 {
		t.Errorf("max_concurrent = %d, want default 3", cfg.Coordination.MaxConcurrent)
	}
	if cfg.Coordination.Timeout != 300*time.Second {
		t.Errorf("timeout = %s, want default 300s", cfg.Coordination.Timeout)
	}
	if cfg.Anthropic.MaxTokens != 8192 {
		t.Errorf("max_tokens = %d, want default 8192", cfg.Anthropic.MaxTokens)
	}
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	t.Setenv("CONDUCTOR_TEST_KEY", "expanded-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("anthropic:\n  api_key: ${CONDUCTOR_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Anthropic.APIKey != "expanded-key" {
		t.Errorf("api key = %q, want expanded-key", cfg.Anthropic.APIKey)
	}
}

func TestDefaultMatchesSetDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Coordination.MaxConcurrent != 3 || cfg.Coordination.MaxRetries != 3 {
		t.Errorf("defaults = %+v", cfg.Coordination)
	}
	if cfg.Coordination.Timeout != 300*time.Second {
		t.Errorf("timeout = %s, want 300s", cfg.Coordination.Timeout)
	}
}
