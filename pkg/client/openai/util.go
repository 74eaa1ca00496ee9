package openai

import (
	"strings"

	"github.com/pkg/errors"
)

// Model constants
const (
	modelGPT4o     = "gpt-4o"
	modelGPT4oMini = "gpt-4o-mini"
	modelO3        = "o3"
	modelO4Mini    = "o4-mini"
)

// getOpenAIModel maps user-friendly model names to actual model identifiers
func getOpenAIModel(model string) string {
	switch model {
	case "", "default":
		return modelGPT4oMini
	case "mini":
		return modelO4Mini
	default:
		if isKnownModel(model) {
			return model
		}
		// DeepSeek and other compatible endpoints use their own names
		if strings.HasPrefix(model, "deepseek-") {
			return model
		}
		return modelGPT4oMini
	}
}

func isKnownModel(model string) bool {
	known := map[string]bool{
		modelGPT4o:     true,
		modelGPT4oMini: true,
		modelO3:        true,
		modelO4Mini:    true,
	}
	return known[model]
}

// ModelCapabilities describes what a given model supports
type ModelCapabilities struct {
	SupportsToolCalling bool
	SupportsReasoning   bool
	MaxTokens           int
}

// getModelCapabilities returns the capabilities of a specific model
func getModelCapabilities(model string) ModelCapabilities {
	switch model {
	case modelO3, modelO4Mini:
		return ModelCapabilities{
			SupportsToolCalling: true,
			SupportsReasoning:   true,
			MaxTokens:           16384,
		}
	case modelGPT4o:
		return ModelCapabilities{
			SupportsToolCalling: true,
			MaxTokens:           8192,
		}
	case modelGPT4oMini:
		return ModelCapabilities{
			SupportsToolCalling: true,
			MaxTokens:           4096,
		}
	default:
		return ModelCapabilities{
			SupportsToolCalling: true,
			MaxTokens:           4096,
		}
	}
}

// validateModelForCapability checks if a model supports a specific capability
func validateModelForCapability(model string, capability string) error {
	caps := getModelCapabilities(model)

	switch capability {
	case "tool_calling":
		if !caps.SupportsToolCalling {
			return errors.Errorf("model %s does not support tool calling", model)
		}
	case "reasoning":
		if !caps.SupportsReasoning {
			return errors.Errorf("model %s does not support reasoning", model)
		}
	}

	return nil
}
