package anthropic

import (
	"context"
	"encoding/json"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
)

const (
	defaultMaxTokens     = 8192
	thinkingBudgetTokens = 2048
)

var log = logger.NewComponentLogger("anthropic-client")

// AnthropicCore contains shared Anthropic client resources
type AnthropicCore struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	lastUsage *message.TokenUsage
}

// AnthropicClient handles communication with Claude models.
// Implements domain.ToolCallingLLM.
type AnthropicClient struct {
	*AnthropicCore
	toolManager domain.ToolManager
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(model string) (domain.ToolCallingLLM, error) {
	return NewAnthropicClientWithTokens(model, 0) // 0 = use default
}

// NewAnthropicClientWithTokens creates a new Anthropic client with configurable maxTokens
func NewAnthropicClientWithTokens(model string, maxTokens int) (domain.ToolCallingLLM, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		AnthropicCore: &AnthropicCore{
			client:    &client,
			model:     getAnthropicModel(model),
			maxTokens: maxTokens,
		},
	}, nil
}

// ModelID implements domain.ModelIdentifier
func (c *AnthropicClient) ModelID() string { return c.model }

// LastTokenUsage implements domain.TokenUsageProvider
func (c *AnthropicClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage == nil {
		return message.TokenUsage{}, false
	}
	return *c.lastUsage, true
}

// SetToolManager sets the tool manager for dynamic tool definitions
func (c *AnthropicClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// IsToolCapable reports native tool calling support
func (c *AnthropicClient) IsToolCapable() bool { return true }

// Chat sends a plain conversation to Claude
func (c *AnthropicClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	params := c.buildParams(messages, nil)
	return c.send(ctx, params)
}

// ChatWithToolChoice sends a conversation with tool choice control
func (c *AnthropicClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	var tools []anthropic.ToolUnionParam
	if c.toolManager != nil {
		tools = convertToolsToAnthropic(c.toolManager.GetTools())
	}

	params := c.buildParams(messages, tools)
	if len(tools) > 0 {
		params.ToolChoice = convertToolChoiceToAnthropic(toolChoice)
	}

	// Thinking blocks cannot be combined with tool result turns, so stream
	// with thinking only on fresh conversations
	if !hasToolResults(messages) {
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: int64(thinkingBudgetTokens),
			},
		}
		return c.sendStreaming(ctx, params)
	}

	return c.send(ctx, params)
}

func (c *AnthropicClient) buildParams(messages []message.Message, tools []anthropic.ToolUnionParam) anthropic.MessageNewParams {
	anthropicMessages, system := toAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Messages:  anthropicMessages,
		Model:     anthropic.Model(c.model),
		Tools:     tools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func hasToolResults(messages []message.Message) bool {
	for _, msg := range messages {
		if msg.Type() == message.MessageTypeToolResult {
			return true
		}
	}
	return false
}

func (c *AnthropicClient) send(ctx context.Context, params anthropic.MessageNewParams) (message.Message, error) {
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic API error")
	}
	if len(msg.Content) == 0 {
		return nil, errors.New("no content in Anthropic response")
	}

	c.lastUsage = &message.TokenUsage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		log.Warn("Response truncated at max tokens", "max_tokens", c.maxTokens)
	}

	return c.extractResponse(msg.Content)
}

func (c *AnthropicClient) sendStreaming(ctx context.Context, params anthropic.MessageNewParams) (message.Message, error) {
	stream := c.client.Messages.NewStreaming(ctx, params)
	printer := message.NewThinkingPrinter()

	var acc anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, errors.Wrap(err, "failed to accumulate streaming event")
		}

		switch eventData := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := eventData.Delta.AsAny().(anthropic.ThinkingDelta); ok {
				printer.Write(delta.Thinking)
			}
		case anthropic.ContentBlockStartEvent:
			if block, ok := eventData.ContentBlock.AsAny().(anthropic.ThinkingBlock); ok {
				printer.Write(block.Thinking)
			}
		}
	}
	printer.End()

	if stream.Err() != nil {
		return nil, errors.Wrap(stream.Err(), "anthropic streaming error")
	}
	if len(acc.Content) == 0 {
		return nil, errors.New("no content in accumulated Anthropic message")
	}

	c.lastUsage = &message.TokenUsage{
		InputTokens:  int(acc.Usage.InputTokens),
		OutputTokens: int(acc.Usage.OutputTokens),
		TotalTokens:  int(acc.Usage.InputTokens + acc.Usage.OutputTokens),
	}

	return c.extractResponse(acc.Content)
}

func (c *AnthropicClient) extractResponse(content []anthropic.ContentBlockUnion) (message.Message, error) {
	var text string
	var thinking string
	var toolCalls []anthropic.ToolUseBlock

	for _, contentBlock := range content {
		switch variant := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			toolCalls = append(toolCalls, variant)
		case anthropic.ThinkingBlock:
			thinking += variant.Thinking
		case anthropic.RedactedThinkingBlock:
			continue
		}
	}

	if len(toolCalls) > 0 {
		toolCall := toolCalls[0]
		toolArgs := make(map[string]any)
		if toolCall.Input != nil {
			if err := json.Unmarshal(toolCall.Input, &toolArgs); err != nil {
				return nil, errors.Wrap(err, "failed to parse tool arguments")
			}
		}
		return message.NewToolCallMessageWithID(
			toolCall.ID,
			message.ToolName(toolCall.Name),
			message.ToolArgumentValues(toolArgs),
		), nil
	}

	if thinking != "" {
		return message.NewChatMessageWithThinking(message.MessageTypeAssistant, text, thinking), nil
	}
	return message.NewChatMessage(message.MessageTypeAssistant, text), nil
}
