package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	pkgLogger "github.com/smoldhq/smold/pkg/logger"
)

// Defaults applied when the settings file leaves fields unset
const (
	DefaultAgentMaxIterations = 30
	DefaultMaxInteractions    = 8
	DefaultMaxContextTokens   = 100000
)

const settingsDirName = ".smold"

// Settings represents the main application settings
type Settings struct {
	LLM     LLMSettings     `json:"llm"`
	Context ContextSettings `json:"context"`
	MCP     MCPSettings     `json:"mcp"`
	Agent   AgentSettings   `json:"agent"`
	Council CouncilSettings `json:"council"`
}

// LLMSettings contains LLM client configuration
type LLMSettings struct {
	Backend   string `json:"backend"`              // "openai", "anthropic", "gemini", or "ollama"
	Model     string `json:"model"`                // model name
	ProModel  string `json:"pro_model,omitempty"`  // stronger model for the pro toggle
	BaseURL   string `json:"base_url,omitempty"`   // for ollama or OpenAI-compatible endpoints
	MaxTokens int    `json:"max_tokens,omitempty"` // max response tokens (0 = model default)
}

// ContextSettings bounds the conversation memory
type ContextSettings struct {
	MaxInteractions  int `json:"max_interactions"`   // retained user/assistant exchanges
	MaxContextTokens int `json:"max_context_tokens"` // joint budget with the system prompt
}

// MCPSettings contains MCP server configuration
type MCPSettings struct {
	Servers []MCPServerConfig `json:"servers,omitempty"`
}

// MCPServerConfig describes one stdio MCP server to attach
type MCPServerConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// AgentSettings contains agent behavior configuration
type AgentSettings struct {
	MaxIterations int    `json:"max_iterations"`
	LogLevel      string `json:"log_level"`
}

// CouncilSettings configures the multi-model consultation tool
type CouncilSettings struct {
	Enabled    bool   `json:"enabled"`
	RosterPath string `json:"roster_path,omitempty"` // YAML roster; built-in roster when empty
}

// LoadSettings loads application settings from a JSON file
func LoadSettings(configPath string) (*Settings, error) {
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			// No settings file found, create a default one
			return createDefaultSettingsFile()
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		settings, _ := createSettingsFileAtPath(configPath)
		return settings, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read settings file")
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(&settings)
	return &settings, nil
}

// SaveSettings saves application settings to a JSON file
func SaveSettings(configPath string, settings *Settings) error {
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			configPath = filepath.Join(settingsDirName, "settings.json")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		LLM: LLMSettings{
			Backend:   "openai",
			Model:     "gpt-4o-mini",
			ProModel:  "o4-mini",
			MaxTokens: 0, // model-specific default
		},
		Context: ContextSettings{
			MaxInteractions:  DefaultMaxInteractions,
			MaxContextTokens: DefaultMaxContextTokens,
		},
		Agent: AgentSettings{
			MaxIterations: DefaultAgentMaxIterations,
			LogLevel:      "info",
		},
		Council: CouncilSettings{
			Enabled: false,
		},
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.LLM.Backend == "" {
		settings.LLM.Backend = defaults.LLM.Backend
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = defaults.LLM.Model
	}
	if settings.LLM.ProModel == "" {
		settings.LLM.ProModel = defaults.LLM.ProModel
	}
	if settings.LLM.BaseURL == "" && settings.LLM.Backend == "ollama" {
		settings.LLM.BaseURL = "http://localhost:11434"
	}

	if settings.Context.MaxInteractions == 0 {
		settings.Context.MaxInteractions = defaults.Context.MaxInteractions
	}
	if settings.Context.MaxContextTokens == 0 {
		settings.Context.MaxContextTokens = defaults.Context.MaxContextTokens
	}

	if settings.Agent.MaxIterations == 0 {
		settings.Agent.MaxIterations = defaults.Agent.MaxIterations
	}
	if settings.Agent.LogLevel == "" {
		settings.Agent.LogLevel = defaults.Agent.LogLevel
	}
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	switch settings.LLM.Backend {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		return errors.Errorf("unsupported LLM backend: %s (must be 'openai', 'anthropic', 'gemini', or 'ollama')", settings.LLM.Backend)
	}

	if settings.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	switch settings.LLM.Backend {
	case "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return errors.New("Anthropic API key is required (set ANTHROPIC_API_KEY environment variable)")
		}
	case "openai":
		if os.Getenv("OPENAI_API_KEY") == "" {
			return errors.New("OpenAI API key is required (set OPENAI_API_KEY environment variable)")
		}
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return errors.New("Gemini API key is required (set GEMINI_API_KEY environment variable)")
		}
	}

	if settings.Agent.MaxIterations <= 0 {
		return errors.New("max_iterations must be positive")
	}
	if settings.Context.MaxInteractions < 0 {
		return errors.New("max_interactions must not be negative")
	}
	if settings.Context.MaxContextTokens < 0 {
		return errors.New("max_context_tokens must not be negative")
	}

	for _, serverConfig := range settings.MCP.Servers {
		if err := ValidateMCPServerConfig(serverConfig); err != nil {
			return errors.Wrapf(err, "invalid MCP server configuration for %s", serverConfig.Name)
		}
	}

	return nil
}

// ValidateMCPServerConfig validates an MCP server configuration
func ValidateMCPServerConfig(config MCPServerConfig) error {
	if config.Name == "" {
		return errors.New("server name is required")
	}
	if config.Command == "" {
		return errors.New("command is required for stdio servers")
	}
	return nil
}

// findSettingsFile searches for settings.json in order of preference:
// .smold/settings.json in the current directory, then $HOME/.smold/settings.json.
// Returns empty string if none found.
func findSettingsFile() string {
	currentDirPath := filepath.Join(settingsDirName, "settings.json")
	if _, err := os.Stat(currentDirPath); err == nil {
		return currentDirPath
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDirPath := filepath.Join(homeDir, settingsDirName, "settings.json")
		if _, err := os.Stat(homeDirPath); err == nil {
			return homeDirPath
		}
	}

	return ""
}

// createDefaultSettingsFile creates a default settings.json in ~/.smold/
func createDefaultSettingsFile() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return GetDefaultSettings(), nil
	}
	return createSettingsFileAtPath(filepath.Join(homeDir, settingsDirName, "settings.json"))
}

// createSettingsFileAtPath creates a default settings file at the specified
// path, falling back to in-memory defaults on any file error
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := GetDefaultSettings()

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return settings, nil
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return settings, nil
	}
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return settings, nil
	}

	pkgLogger.NewComponentLogger("settings").InfoWithIcon("⚙️", "Created default settings file", "path", settingsPath)
	return settings, nil
}
