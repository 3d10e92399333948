package coordinator

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgeworks/conductor/pkg/models"
)

// Agent types the coordinator dispatches to. The backend type is the
// fallback for tasks matching no keyword set.
const (
	AgentTypeBackend  = "backend"
	AgentTypeFrontend = "frontend"
	AgentTypeTest     = "test"
	AgentTypeReview   = "review"
)

// Classifier decides which agent type should handle a task.
type Classifier interface {
	ClassifyAgentType(task *models.Task) string
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(task *models.Task) string

// ClassifyAgentType calls f.
func (f ClassifierFunc) ClassifyAgentType(task *models.Task) string { return f(task) }

// KeywordClassifier routes tasks to agent types by scanning the task title
// and description for keywords. Matching is case-insensitive and checks
// review keywords first, then test, then frontend. Anything else goes to a
// backend agent.
type KeywordClassifier struct {
	Review   []string
	Test     []string
	Frontend []string
}

// NewKeywordClassifier returns a classifier with the default keyword sets.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		Review: []string{
			"review", "audit", "security check", "code quality",
		},
		Test: []string{
			"test", "spec", "coverage", "regression", "e2e", "integration test",
		},
		Frontend: []string{
			"css", "html", "frontend", "component", "styling",
			"layout", "react", "page", "form", "button", "modal",
		},
	}
}

// keywordFile is the on-disk format for classifier keyword overrides.
type keywordFile struct {
	Review   []string `yaml:"review"`
	Test     []string `yaml:"test"`
	Frontend []string `yaml:"frontend"`
}

// LoadKeywordClassifier reads keyword overrides from a YAML file, typically
// .conductor/agents.yaml. Sets absent from the file keep their defaults.
func LoadKeywordClassifier(path string) (*KeywordClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var kf keywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c := NewKeywordClassifier()
	if len(kf.Review) > 0 {
		c.Review = kf.Review
	}
	if len(kf.Test) > 0 {
		c.Test = kf.Test
	}
	if len(kf.Frontend) > 0 {
		c.Frontend = kf.Frontend
	}
	return c, nil
}

// ClassifyAgentType returns the agent type for the task.
func (c *KeywordClassifier) ClassifyAgentType(task *models.Task) string {
	text := strings.ToLower(task.Title + " " + task.Description)

	if containsAny(text, c.Review) {
		return AgentTypeReview
	}
	if containsAny(text, c.Test) {
		return AgentTypeTest
	}
	if containsAny(text, c.Frontend) {
		return AgentTypeFrontend
	}
	return AgentTypeBackend
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
