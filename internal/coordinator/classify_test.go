package coordinator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forgeworks/conductor/pkg/models"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		title       string
		description string
		want        string
	}{
		{"Implement auth endpoint", "Add JWT validation middleware", AgentTypeBackend},
		{"Build login form", "New React component with validation", AgentTypeFrontend},
		{"Fix CSS layout on dashboard", "", AgentTypeFrontend},
		{"Write integration tests for auth", "", AgentTypeTest},
		{"Add regression coverage", "for the payments module", AgentTypeTest},
		{"Review the auth changes", "", AgentTypeReview},
		{"Security audit of API surface", "", AgentTypeReview},
		// Review keywords win over test and frontend keywords.
		{"Review UI test suite", "", AgentTypeReview},
		{"", "", AgentTypeBackend},
	}

	for _, tc := range cases {
		task := &models.Task{Title: tc.title, Description: tc.description}
		if got := c.ClassifyAgentType(task); got != tc.want {
			t.Errorf("classify(%q, %q) = %s, want %s", tc.title, tc.description, got, tc.want)
		}
	}
}

func TestLoadKeywordClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := "frontend:\n  - wasm\ntest:\n  - property-based\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadKeywordClassifier(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := c.ClassifyAgentType(&models.Task{Title: "port widget to wasm"}); got != AgentTypeFrontend {
		t.Errorf("override keyword not applied, got %s", got)
	}
	// The default frontend keywords were replaced wholesale.
	if got := c.ClassifyAgentType(&models.Task{Title: "fix css"}); got != AgentTypeBackend {
		t.Errorf("default keywords should be replaced, got %s", got)
	}
	// Review keywords were not overridden and keep their defaults.
	if got := c.ClassifyAgentType(&models.Task{Title: "review the port"}); got != AgentTypeReview {
		t.Errorf("untouched set should keep defaults, got %s", got)
	}
}

func TestClassifierFunc(t *testing.T) {
	c := ClassifierFunc(func(task *models.Task) string { return "custom" })
	if got := c.ClassifyAgentType(&models.Task{}); got != "custom" {
		t.Errorf("got %s, want custom", got)
	}
}
