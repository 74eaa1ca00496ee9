package openai

import (
	"encoding/json"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

// convertToolChoiceToOpenAI converts a domain tool choice to the OpenAI union form
func convertToolChoiceToOpenAI(toolChoice domain.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	switch toolChoice.Type {
	case domain.ToolChoiceAny:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
	case domain.ToolChoiceNone:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("none")}
	case domain.ToolChoiceTool:
		return openai.ToolChoiceOptionFunctionToolChoice(openai.ChatCompletionNamedToolChoiceFunctionParam{
			Name: string(toolChoice.Name),
		})
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}
}

// convertToolsToOpenAI converts domain tools to OpenAI function format
func convertToolsToOpenAI(tools map[message.ToolName]message.Tool) []openai.ChatCompletionToolUnionParam {
	var openaiTools []openai.ChatCompletionToolUnionParam

	for _, tool := range tools {
		properties := make(map[string]any)
		required := []string{}

		for _, arg := range tool.Arguments() {
			properties[arg.Name] = argumentToProperty(arg)
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		params := shared.FunctionParameters{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			params["required"] = required
		}

		openaiTools = append(openaiTools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        string(tool.Name()),
			Description: openai.String(tool.Description().String()),
			Parameters:  params,
		}))
	}

	return openaiTools
}

// argumentToProperty builds the JSON schema fragment for one tool argument
func argumentToProperty(arg message.ToolArgument) map[string]any {
	property := map[string]any{
		"description": arg.Description,
	}

	switch arg.Type {
	case "number", "integer", "boolean", "array", "object":
		property["type"] = arg.Type
	default:
		property["type"] = "string"
	}
	if arg.Type == "array" {
		property["items"] = map[string]any{"type": "string"}
	}

	return property
}

// convertOpenAIArgsToToolArgs decodes a JSON argument payload from the API
func convertOpenAIArgsToToolArgs(argsJSON string) message.ToolArgumentValues {
	args := make(message.ToolArgumentValues)
	if argsJSON == "" {
		return args
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		// Surface the undecodable payload to the tool layer rather than drop it
		args["_raw"] = argsJSON
	}
	return args
}

// toOpenAIMessages converts domain messages to OpenAI format, representing
// historical tool traffic as plain text
func toOpenAIMessages(messages []message.Message) []openai.ChatCompletionMessageParamUnion {
	var openaiMessages []openai.ChatCompletionMessageParamUnion

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser:
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content()))
		case message.MessageTypeAssistant:
			openaiMessages = append(openaiMessages, openai.AssistantMessage(msg.Content()))
		case message.MessageTypeSystem:
			openaiMessages = append(openaiMessages, openai.SystemMessage(msg.Content()))
		case message.MessageTypeToolCall:
			openaiMessages = append(openaiMessages, openai.AssistantMessage("[Called tool: "+msg.Content()+"]"))
		case message.MessageTypeToolResult:
			openaiMessages = append(openaiMessages, openai.UserMessage("[Tool result: "+msg.Content()+"]"))
		}
	}

	return openaiMessages
}
