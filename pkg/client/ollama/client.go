package ollama

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

const defaultMaxTokens = 4096

// errStreamDone is the sentinel used to stop streaming after the first tool call
var errStreamDone = errors.New("streaming stopped")

// OllamaCore contains shared Ollama client resources
type OllamaCore struct {
	client    *api.Client
	model     string
	maxTokens int
}

// OllamaClient implements tool calling against a local Ollama server
type OllamaClient struct {
	*OllamaCore
	toolManager domain.ToolManager
}

// NewOllamaClient creates a new Ollama client for the given model
func NewOllamaClient(model string) (domain.ToolCallingLLM, error) {
	return NewOllamaClientWithTokens(model, 0) // 0 = use default
}

// NewOllamaClientWithTokens creates a new Ollama client with configurable maxTokens
func NewOllamaClientWithTokens(model string, maxTokens int) (domain.ToolCallingLLM, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Ollama client")
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OllamaClient{
		OllamaCore: &OllamaCore{
			client:    client,
			model:     model,
			maxTokens: maxTokens,
		},
	}, nil
}

// ModelID implements domain.ModelIdentifier
func (c *OllamaClient) ModelID() string { return c.model }

// SetToolManager sets the tool manager for native tool calling
func (c *OllamaClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// IsToolCapable checks if the current model supports native tool calling
func (c *OllamaClient) IsToolCapable() bool {
	return IsToolCapableModel(c.model)
}

// Chat sends a conversation to Ollama and returns the response
func (c *OllamaClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.chat(ctx, messages, nil)
}

// ChatWithToolChoice sends a conversation with tool choice control
func (c *OllamaClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	var tools api.Tools
	if c.IsToolCapable() && c.toolManager != nil && toolChoice.Type != domain.ToolChoiceNone {
		tools = convertToOllamaTools(c.toolManager.GetTools())
	}
	return c.chat(ctx, messages, tools)
}

func (c *OllamaClient) chat(ctx context.Context, messages []message.Message, tools api.Tools) (message.Message, error) {
	ollamaMessages := toOllamaMessages(messages)

	// Smaller local models need an explicit nudge before they reach for tools
	if len(tools) > 0 {
		ensureSystemMessage(&ollamaMessages,
			"You are a helpful assistant. Use the available tools whenever one fits the user's request.")
	}

	chatRequest := &api.ChatRequest{
		Model:    c.model,
		Messages: ollamaMessages,
		Tools:    tools,
		Options: map[string]any{
			"temperature": 0.1,
			"num_predict": c.maxTokens,
		},
	}
	if IsThinkingCapableModel(c.model) {
		think := true
		chatRequest.Think = &think
	}

	printer := message.NewThinkingPrinter()
	var content strings.Builder
	var thinking strings.Builder
	var toolCalls []api.ToolCall

	err := c.client.Chat(ctx, chatRequest, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Message.Thinking != "" {
			printer.Write(resp.Message.Thinking)
			thinking.WriteString(resp.Message.Thinking)
		}
		if len(resp.Message.ToolCalls) > 0 {
			toolCalls = append(toolCalls, resp.Message.ToolCalls...)
			return errStreamDone
		}
		return nil
	})
	printer.End()

	if err != nil && !strings.Contains(err.Error(), errStreamDone.Error()) {
		return nil, errors.Wrap(err, "ollama chat error")
	}

	if len(toolCalls) > 0 {
		first := toolCalls[0]
		return message.NewToolCallMessage(
			message.ToolName(first.Function.Name),
			message.ToolArgumentValues(first.Function.Arguments),
		), nil
	}

	if thinking.Len() > 0 {
		return message.NewChatMessageWithThinking(message.MessageTypeAssistant, content.String(), thinking.String()), nil
	}
	return message.NewChatMessage(message.MessageTypeAssistant, content.String()), nil
}
