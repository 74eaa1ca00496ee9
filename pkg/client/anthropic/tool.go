package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

// Model aliases accepted in settings files
const (
	modelSonnet = "claude-sonnet-4-0"
	modelHaiku  = "claude-3-5-haiku-latest"
	modelOpus   = "claude-opus-4-0"
)

// getAnthropicModel maps friendly aliases to model identifiers
func getAnthropicModel(model string) string {
	switch model {
	case "", "default", "sonnet":
		return modelSonnet
	case "haiku":
		return modelHaiku
	case "opus":
		return modelOpus
	default:
		return model
	}
}

// toAnthropicMessages converts domain messages to Anthropic turns. The system
// prompt travels in the dedicated request field, not as a message.
func toAnthropicMessages(messages []message.Message) ([]anthropic.MessageParam, string) {
	var out []anthropic.MessageParam
	var system string

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeSystem:
			system += msg.Content()
		case message.MessageTypeUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content())))
		case message.MessageTypeAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content())))
		case message.MessageTypeToolCall:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock("[Called tool: "+msg.Content()+"]")))
		case message.MessageTypeToolResult:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("[Tool result: "+msg.Content()+"]")))
		}
	}

	return out, system
}

// convertToolsToAnthropic converts domain tools to the Anthropic tool format
func convertToolsToAnthropic(tools map[message.ToolName]message.Tool) []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam

	for _, tool := range tools {
		properties := make(map[string]any)
		var required []string

		for _, arg := range tool.Arguments() {
			prop := map[string]any{"description": arg.Description}
			switch arg.Type {
			case "number", "integer", "boolean", "array", "object":
				prop["type"] = arg.Type
			default:
				prop["type"] = "string"
			}
			properties[arg.Name] = prop
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        string(tool.Name()),
				Description: anthropic.String(tool.Description().String()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	return out
}

// convertToolChoiceToAnthropic converts domain ToolChoice to Anthropic format
func convertToolChoiceToAnthropic(toolChoice domain.ToolChoice) anthropic.ToolChoiceUnionParam {
	switch toolChoice.Type {
	case domain.ToolChoiceAny:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case domain.ToolChoiceTool:
		return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: string(toolChoice.Name)}}
	case domain.ToolChoiceNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
}
