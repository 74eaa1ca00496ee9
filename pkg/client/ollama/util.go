package ollama

import (
	"github.com/ollama/ollama/api"

	"github.com/smoldhq/smold/pkg/message"
)

const roleSystem = "system"

// toOllamaMessages converts domain messages to Ollama API format
func toOllamaMessages(messages []message.Message) []api.Message {
	var out []api.Message

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser, message.MessageTypeAssistant, message.MessageTypeSystem:
			ollamaMsg := api.Message{
				Role:    string(msg.Type()),
				Content: msg.Content(),
			}
			if thinking := msg.Thinking(); thinking != "" {
				ollamaMsg.Thinking = thinking
			}
			out = append(out, ollamaMsg)

		case message.MessageTypeToolCall:
			if toolCallMsg, ok := msg.(*message.ToolCallMessage); ok {
				out = append(out, api.Message{
					Role: "assistant",
					ToolCalls: []api.ToolCall{
						{
							Function: api.ToolCallFunction{
								Name:      string(toolCallMsg.ToolName()),
								Arguments: api.ToolCallFunctionArguments(toolCallMsg.ToolArguments()),
							},
						},
					},
				})
			}

		case message.MessageTypeToolResult:
			// The chat API has no first-class tool result turn; deliver it
			// from the user perspective
			out = append(out, api.Message{
				Role:    "user",
				Content: msg.Content(),
			})
		}
	}

	return out
}

// convertToOllamaTools converts domain tools to the Ollama API tool format
func convertToOllamaTools(tools map[message.ToolName]message.Tool) api.Tools {
	var ollamaTools api.Tools

	for _, tool := range tools {
		properties := make(map[string]struct {
			Type        api.PropertyType `json:"type"`
			Items       any              `json:"items,omitempty"`
			Description string           `json:"description"`
			Enum        []any            `json:"enum,omitempty"`
		})
		var required []string

		for _, arg := range tool.Arguments() {
			argType := arg.Type
			if argType == "" {
				argType = "string"
			}
			properties[arg.Name] = struct {
				Type        api.PropertyType `json:"type"`
				Items       any              `json:"items,omitempty"`
				Description string           `json:"description"`
				Enum        []any            `json:"enum,omitempty"`
			}{
				Type:        api.PropertyType{argType},
				Description: arg.Description,
			}
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		ollamaTools = append(ollamaTools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        string(tool.Name()),
				Description: tool.Description().String(),
				Parameters: struct {
					Type       string   `json:"type"`
					Defs       any      `json:"$defs,omitempty"`
					Items      any      `json:"items,omitempty"`
					Required   []string `json:"required"`
					Properties map[string]struct {
						Type        api.PropertyType `json:"type"`
						Items       any              `json:"items,omitempty"`
						Description string           `json:"description"`
						Enum        []any            `json:"enum,omitempty"`
					} `json:"properties"`
				}{
					Type:       "object",
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	return ollamaTools
}

// ensureSystemMessage prepends a system message unless one is already present
func ensureSystemMessage(messages *[]api.Message, content string) {
	if len(*messages) > 0 && (*messages)[0].Role == roleSystem {
		return
	}
	*messages = append([]api.Message{{Role: roleSystem, Content: content}}, *messages...)
}
