package gemini

import (
	"os"

	"google.golang.org/genai"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

const (
	modelGemini25Pro   = "gemini-2.5-pro"
	modelGemini25Flash = "gemini-2.5-flash"
	modelGemini20Flash = "gemini-2.0-flash"
)

func getAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// getGeminiModel maps friendly aliases to model identifiers
func getGeminiModel(model string) string {
	switch model {
	case "", "default", "flash":
		return modelGemini25Flash
	case "pro":
		return modelGemini25Pro
	default:
		return model
	}
}

// ModelCapabilities describes what a given Gemini model supports
type ModelCapabilities struct {
	IsReasoningModel bool
	MaxTokens        int
}

func getModelCapabilities(model string) ModelCapabilities {
	switch model {
	case modelGemini25Pro:
		return ModelCapabilities{IsReasoningModel: true, MaxTokens: 16384}
	case modelGemini25Flash:
		return ModelCapabilities{IsReasoningModel: true, MaxTokens: 8192}
	case modelGemini20Flash:
		return ModelCapabilities{MaxTokens: 8192}
	default:
		return ModelCapabilities{MaxTokens: 8192}
	}
}

// convertToolsToGemini converts domain tools to Gemini function declarations
func convertToolsToGemini(tools map[message.ToolName]message.Tool) []*genai.Tool {
	var declarations []*genai.FunctionDeclaration

	for _, tool := range tools {
		properties := make(map[string]*genai.Schema)
		var required []string

		for _, arg := range tool.Arguments() {
			properties[arg.Name] = &genai.Schema{
				Type:        geminiType(arg.Type),
				Description: arg.Description,
			}
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        string(tool.Name()),
			Description: tool.Description().String(),
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}

	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func geminiType(argType string) genai.Type {
	switch argType {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertToolChoiceToGemini converts domain ToolChoice to a Gemini ToolConfig
func convertToolChoiceToGemini(toolChoice domain.ToolChoice) *genai.ToolConfig {
	var mode genai.FunctionCallingConfigMode
	switch toolChoice.Type {
	case domain.ToolChoiceAny, domain.ToolChoiceTool:
		mode = genai.FunctionCallingConfigModeAny
	case domain.ToolChoiceNone:
		mode = genai.FunctionCallingConfigModeNone
	default:
		mode = genai.FunctionCallingConfigModeAuto
	}

	config := &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
	}
	if toolChoice.Type == domain.ToolChoiceTool && toolChoice.Name != "" {
		config.FunctionCallingConfig.AllowedFunctionNames = []string{string(toolChoice.Name)}
	}
	return config
}
