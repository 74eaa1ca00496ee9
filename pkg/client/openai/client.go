package openai

import (
	"context"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

// OpenAICore holds shared resources for OpenAI clients
type OpenAICore struct {
	client    *openai.Client
	model     string
	maxTokens int
	lastUsage *message.TokenUsage
}

// OpenAIClient implements the ToolCallingLLM interface
type OpenAIClient struct {
	*OpenAICore
	toolManager domain.ToolManager
}

// NewOpenAIClient creates a new OpenAI client with the specified model
func NewOpenAIClient(model string) (*OpenAIClient, error) {
	return NewOpenAIClientWithTokens(model, 0) // 0 = use model default
}

// NewOpenAIClientWithTokens creates a new OpenAI client with configurable maxTokens
func NewOpenAIClientWithTokens(model string, maxTokens int) (*OpenAIClient, error) {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	return NewCompatibleClient(model, maxTokens, baseURL, "OPENAI_API_KEY")
}

// NewCompatibleClient creates a client against any OpenAI-compatible endpoint
// (DeepSeek, Azure, local gateways) with the API key taken from apiKeyEnv
func NewCompatibleClient(model string, maxTokens int, baseURL, apiKeyEnv string) (*OpenAIClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, errors.Errorf("%s environment variable not set", apiKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	openaiModel := getOpenAIModel(model)
	if maxTokens <= 0 {
		maxTokens = getModelCapabilities(openaiModel).MaxTokens
	}

	return &OpenAIClient{
		OpenAICore: &OpenAICore{
			client:    &client,
			model:     openaiModel,
			maxTokens: maxTokens,
		},
	}, nil
}

// ModelID implements domain.ModelIdentifier
func (c *OpenAIClient) ModelID() string { return c.model }

// LastTokenUsage implements domain.TokenUsageProvider
func (c *OpenAIClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage == nil {
		return message.TokenUsage{}, false
	}
	return *c.lastUsage, true
}

func (c *OpenAICore) recordUsage(usage openai.CompletionUsage) {
	c.lastUsage = &message.TokenUsage{
		InputTokens:  int(usage.PromptTokens),
		OutputTokens: int(usage.CompletionTokens),
		TotalTokens:  int(usage.TotalTokens),
	}
}

// Chat implements the basic LLM interface
func (c *OpenAIClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser:
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content()))
		case message.MessageTypeAssistant:
			openaiMessages = append(openaiMessages, openai.AssistantMessage(msg.Content()))
		case message.MessageTypeSystem:
			openaiMessages = append(openaiMessages, openai.SystemMessage(msg.Content()))
			// Tool call and result messages are not part of basic chat
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            openaiMessages,
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "OpenAI API call failed")
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	c.recordUsage(completion.Usage)

	responseMessage := message.NewChatMessage(message.MessageTypeAssistant, completion.Choices[0].Message.Content)
	responseMessage.SetTokenUsage(int(completion.Usage.PromptTokens), int(completion.Usage.CompletionTokens))
	return responseMessage, nil
}

// SetToolManager implements ToolCallingLLM interface
func (c *OpenAIClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// IsToolCapable checks if the configured model supports native tool calling
func (c *OpenAIClient) IsToolCapable() bool {
	return getModelCapabilities(c.model).SupportsToolCalling
}

// ChatWithToolChoice implements ToolCallingLLM with native OpenAI tool calling
func (c *OpenAIClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            toOpenAIMessages(messages),
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}

	if c.toolManager != nil {
		if tools := convertToolsToOpenAI(c.toolManager.GetTools()); len(tools) > 0 {
			params.Tools = tools
			params.ToolChoice = convertToolChoiceToOpenAI(toolChoice)
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "OpenAI API call failed")
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	c.recordUsage(completion.Usage)
	choice := completion.Choices[0]

	if len(choice.Message.ToolCalls) > 0 {
		// One tool call per turn; the provider call ID keeps the result paired
		toolCall := choice.Message.ToolCalls[0]
		return message.NewToolCallMessageWithID(
			toolCall.ID,
			message.ToolName(toolCall.Function.Name),
			convertOpenAIArgsToToolArgs(toolCall.Function.Arguments),
		), nil
	}

	responseMessage := message.NewChatMessage(message.MessageTypeAssistant, choice.Message.Content)
	responseMessage.SetTokenUsage(int(completion.Usage.PromptTokens), int(completion.Usage.CompletionTokens))
	return responseMessage, nil
}
