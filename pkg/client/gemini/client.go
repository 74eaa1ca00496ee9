package gemini

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

// GeminiCore holds shared resources for Gemini clients
type GeminiCore struct {
	client    *genai.Client
	model     string
	maxTokens int
	lastUsage *message.TokenUsage
}

// GeminiClient implements the ToolCallingLLM interface
type GeminiClient struct {
	*GeminiCore
	toolManager domain.ToolManager
}

// NewGeminiClient creates a new Gemini client with the specified model
func NewGeminiClient(model string) (*GeminiClient, error) {
	return NewGeminiClientWithTokens(model, 0) // 0 = use default
}

// NewGeminiClientWithTokens creates a new Gemini client with configurable maxTokens
func NewGeminiClientWithTokens(model string, maxTokens int) (*GeminiClient, error) {
	apiKey := getAPIKey()
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	geminiModel := getGeminiModel(model)
	if maxTokens <= 0 {
		maxTokens = getModelCapabilities(geminiModel).MaxTokens
	}

	return &GeminiClient{
		GeminiCore: &GeminiCore{
			client:    client,
			model:     geminiModel,
			maxTokens: maxTokens,
		},
	}, nil
}

// ModelID implements domain.ModelIdentifier
func (c *GeminiClient) ModelID() string { return c.model }

// LastTokenUsage implements domain.TokenUsageProvider
func (c *GeminiClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage == nil {
		return message.TokenUsage{}, false
	}
	return *c.lastUsage, true
}

// SetToolManager implements ToolCallingLLM interface
func (c *GeminiClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// IsToolCapable checks if the Gemini client supports native tool calling
func (c *GeminiClient) IsToolCapable() bool {
	return strings.Contains(c.model, "gemini-1.5") ||
		strings.Contains(c.model, "gemini-2.0") ||
		strings.Contains(c.model, "gemini-2.5")
}

func (c *GeminiClient) isThinkingCapable() bool {
	return getModelCapabilities(c.model).IsReasoningModel
}

// toGeminiContents converts domain messages; the system prompt becomes the
// system instruction rather than a conversation turn
func toGeminiContents(messages []message.Message) ([]*genai.Content, *genai.Content) {
	contents := make([]*genai.Content, 0, len(messages))
	var systemInstruction *genai.Content

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser:
			contents = append(contents, genai.NewContentFromText(msg.Content(), genai.RoleUser))
		case message.MessageTypeAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content(), genai.RoleModel))
		case message.MessageTypeSystem:
			systemInstruction = genai.NewContentFromText(msg.Content(), genai.RoleUser)
		case message.MessageTypeToolCall:
			contents = append(contents, genai.NewContentFromText("[Function call: "+msg.Content()+"]", genai.RoleModel))
		case message.MessageTypeToolResult:
			contents = append(contents, genai.NewContentFromText("[Function result: "+msg.Content()+"]", genai.RoleUser))
		}
	}

	return contents, systemInstruction
}

// Chat implements the basic LLM interface
func (c *GeminiClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	contents, systemInstruction := toGeminiContents(messages)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}

	if c.isThinkingCapable() {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
		return c.chatWithStreaming(ctx, contents, config, false)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, errors.Wrap(err, "Gemini API call failed")
	}
	c.recordUsage(resp.UsageMetadata)

	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response from Gemini")
	}
	responseText := resp.Text()
	if responseText == "" {
		return nil, errors.New("empty response from Gemini")
	}

	return message.NewChatMessage(message.MessageTypeAssistant, responseText), nil
}

// ChatWithToolChoice implements ToolCallingLLM with native function calling
func (c *GeminiClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	contents, systemInstruction := toGeminiContents(messages)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}

	if c.toolManager != nil {
		if tools := convertToolsToGemini(c.toolManager.GetTools()); len(tools) > 0 {
			config.Tools = tools
			if toolConfig := convertToolChoiceToGemini(toolChoice); toolConfig != nil {
				config.ToolConfig = toolConfig
			}
		}
	}

	if c.isThinkingCapable() {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
		return c.chatWithStreaming(ctx, contents, config, true)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, errors.Wrap(err, "Gemini API call failed")
	}
	c.recordUsage(resp.UsageMetadata)

	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response from Gemini")
	}

	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if fc := part.FunctionCall; fc != nil {
				return message.NewToolCallMessage(
					message.ToolName(fc.Name),
					message.ToolArgumentValues(fc.Args),
				), nil
			}
		}
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, errors.New("empty response from Gemini")
	}
	return message.NewChatMessage(message.MessageTypeAssistant, responseText), nil
}

// chatWithStreaming streams a generation, showing thought parts progressively
func (c *GeminiClient) chatWithStreaming(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, handleTools bool) (message.Message, error) {
	stream := c.client.Models.GenerateContentStream(ctx, c.model, contents, config)
	printer := message.NewThinkingPrinter()

	var responseText strings.Builder
	var thinkingText strings.Builder
	var toolCall *genai.FunctionCall

	for resp, err := range stream {
		if err != nil {
			printer.End()
			return nil, errors.Wrap(err, "Gemini streaming error")
		}
		c.recordUsage(resp.UsageMetadata)

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if handleTools && part.FunctionCall != nil {
				if toolCall == nil {
					toolCall = part.FunctionCall
				}
				continue
			}
			if part.Text == "" {
				continue
			}
			if part.Thought {
				printer.Write(part.Text)
				thinkingText.WriteString(part.Text)
				continue
			}
			responseText.WriteString(part.Text)
		}
	}
	printer.End()

	if toolCall != nil {
		return message.NewToolCallMessage(
			message.ToolName(toolCall.Name),
			message.ToolArgumentValues(toolCall.Args),
		), nil
	}

	finalText := responseText.String()
	if finalText == "" {
		return nil, errors.New("empty response from Gemini streaming")
	}

	if thinkingText.Len() > 0 {
		return message.NewChatMessageWithThinking(message.MessageTypeAssistant, finalText, thinkingText.String()), nil
	}
	return message.NewChatMessage(message.MessageTypeAssistant, finalText), nil
}

func (c *GeminiCore) recordUsage(usage *genai.GenerateContentResponseUsageMetadata) {
	if usage == nil {
		return
	}
	c.lastUsage = &message.TokenUsage{
		InputTokens:  int(usage.PromptTokenCount),
		OutputTokens: int(usage.CandidatesTokenCount),
		TotalTokens:  int(usage.TotalTokenCount),
	}
}
