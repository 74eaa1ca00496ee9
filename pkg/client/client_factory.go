package client

import (
	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/client/anthropic"
	"github.com/smoldhq/smold/pkg/client/gemini"
	"github.com/smoldhq/smold/pkg/client/ollama"
	"github.com/smoldhq/smold/pkg/client/openai"
)

// Backend identifiers accepted in settings and on the command line
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
)

// NewClient creates a tool calling client for the given backend and model
func NewClient(backend, model string, maxTokens int) (domain.ToolCallingLLM, error) {
	switch backend {
	case BackendOpenAI:
		return openai.NewOpenAIClientWithTokens(model, maxTokens)
	case BackendAnthropic:
		return anthropic.NewAnthropicClientWithTokens(model, maxTokens)
	case BackendGemini:
		return gemini.NewGeminiClientWithTokens(model, maxTokens)
	case BackendOllama:
		return ollama.NewOllamaClientWithTokens(model, maxTokens)
	default:
		return nil, errors.Errorf("unsupported LLM backend: %q", backend)
	}
}

// KnownBackends lists the backends NewClient accepts
func KnownBackends() []string {
	return []string{BackendOpenAI, BackendAnthropic, BackendGemini, BackendOllama}
}

// NewClientWithToolManager attaches a tool manager to a tool-capable client
func NewClientWithToolManager(client domain.LLM, toolManager domain.ToolManager) (domain.ToolCallingLLM, error) {
	toolCallingClient, ok := client.(domain.ToolCallingLLM)
	if !ok {
		return nil, errors.Errorf("unsupported client type for tool calling: %T", client)
	}
	toolCallingClient.SetToolManager(toolManager)
	return toolCallingClient, nil
}
