package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Specialist is one seat on the consultation council
type Specialist struct {
	Name      string `yaml:"name"`
	Backend   string `yaml:"backend"`               // "openai", "gemini", or "openai-compatible"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`    // for openai-compatible endpoints
	APIKeyEnv string `yaml:"api_key_env,omitempty"` // env var holding the key
	Focus     string `yaml:"focus,omitempty"`       // what this seat is asked to emphasize
}

// Roster is the council membership loaded from YAML
type Roster struct {
	MaxContextTokens int          `yaml:"max_context_tokens,omitempty"`
	Specialists      []Specialist `yaml:"specialists"`
}

// DefaultRoster returns the built-in council membership
func DefaultRoster() *Roster {
	return &Roster{
		MaxContextTokens: 60000,
		Specialists: []Specialist{
			{
				Name:      "reasoner",
				Backend:   "openai",
				Model:     "o4-mini",
				APIKeyEnv: "OPENAI_API_KEY",
				Focus:     "step-by-step reasoning and edge cases",
			},
			{
				Name:      "architect",
				Backend:   "gemini",
				Model:     "gemini-2.5-pro",
				APIKeyEnv: "GEMINI_API_KEY",
				Focus:     "design tradeoffs and long-context review",
			},
			{
				Name:      "skeptic",
				Backend:   "openai-compatible",
				Model:     "deepseek-reasoner",
				BaseURL:   "https://api.deepseek.com",
				APIKeyEnv: "DEEPSEEK_API_KEY",
				Focus:     "finding flaws in the proposed approach",
			},
		},
	}
}

// LoadRoster reads a council roster from a YAML file; an empty path returns
// the built-in roster
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read roster file")
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, errors.Wrap(err, "failed to parse roster file")
	}
	if len(roster.Specialists) == 0 {
		return nil, errors.New("roster has no specialists")
	}
	if roster.MaxContextTokens == 0 {
		roster.MaxContextTokens = DefaultRoster().MaxContextTokens
	}

	return &roster, nil
}
