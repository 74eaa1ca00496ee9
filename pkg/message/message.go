package message

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// MessageType identifies the role a message plays in a conversation
type MessageType string

const (
	MessageTypeUser       MessageType = "user"
	MessageTypeAssistant  MessageType = "assistant"
	MessageTypeSystem     MessageType = "system"
	MessageTypeToolCall   MessageType = "tool_call"
	MessageTypeToolResult MessageType = "tool_result"
)

// Message is the common interface for everything that can appear in an
// LLM conversation transcript
type Message interface {
	ID() string
	Type() MessageType
	Content() string
	Thinking() string
	Timestamp() time.Time
	TruncatedString() string
}

var idCounter atomic.Uint64

func nextID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), idCounter.Add(1))
}

func truncateOneLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// TokenUsage carries provider-reported token counts for a single response
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatMessage is a plain text message from the user, the assistant, or the
// system prompt slot
type ChatMessage struct {
	id        string
	msgType   MessageType
	content   string
	thinking  string
	timestamp time.Time
	usage     *TokenUsage
}

// NewChatMessage creates a chat message of the given type
func NewChatMessage(msgType MessageType, content string) *ChatMessage {
	return &ChatMessage{
		id:        nextID("msg"),
		msgType:   msgType,
		content:   content,
		timestamp: time.Now(),
	}
}

// NewChatMessageWithThinking creates an assistant message that also carries
// the model's thinking trace
func NewChatMessageWithThinking(msgType MessageType, content, thinking string) *ChatMessage {
	m := NewChatMessage(msgType, content)
	m.thinking = thinking
	return m
}

// NewSystemMessage creates a system role message
func NewSystemMessage(content string) *ChatMessage {
	return NewChatMessage(MessageTypeSystem, content)
}

func (m *ChatMessage) ID() string            { return m.id }
func (m *ChatMessage) Type() MessageType     { return m.msgType }
func (m *ChatMessage) Content() string       { return m.content }
func (m *ChatMessage) Thinking() string      { return m.thinking }
func (m *ChatMessage) Timestamp() time.Time  { return m.timestamp }

func (m *ChatMessage) TruncatedString() string {
	return fmt.Sprintf("[%s] %s", m.msgType, truncateOneLine(m.content, 80))
}

// SetTokenUsage records provider-reported token counts on the message
func (m *ChatMessage) SetTokenUsage(input, output int) {
	m.usage = &TokenUsage{InputTokens: input, OutputTokens: output, TotalTokens: input + output}
}

// TokenUsage returns provider-reported counts, or nil when unknown
func (m *ChatMessage) TokenUsage() *TokenUsage { return m.usage }

// ToolCallMessage records the model asking for a tool invocation
type ToolCallMessage struct {
	id        string
	toolName  ToolName
	args      ToolArgumentValues
	timestamp time.Time
}

// NewToolCallMessage creates a tool call with a generated ID
func NewToolCallMessage(name ToolName, args ToolArgumentValues) *ToolCallMessage {
	return NewToolCallMessageWithID(nextID("call"), name, args)
}

// NewToolCallMessageWithID creates a tool call keyed by a provider-assigned ID
func NewToolCallMessageWithID(id string, name ToolName, args ToolArgumentValues) *ToolCallMessage {
	return &ToolCallMessage{id: id, toolName: name, args: args, timestamp: time.Now()}
}

func (m *ToolCallMessage) ID() string           { return m.id }
func (m *ToolCallMessage) Type() MessageType    { return MessageTypeToolCall }
func (m *ToolCallMessage) Thinking() string     { return "" }
func (m *ToolCallMessage) Timestamp() time.Time { return m.timestamp }

func (m *ToolCallMessage) Content() string {
	return fmt.Sprintf("%s(%v)", m.toolName, map[string]any(m.args))
}

func (m *ToolCallMessage) TruncatedString() string {
	return fmt.Sprintf("[tool_call] %s", truncateOneLine(m.Content(), 80))
}

func (m *ToolCallMessage) ToolName() ToolName                { return m.toolName }
func (m *ToolCallMessage) ToolArguments() ToolArgumentValues { return m.args }

// ToolResultMessage carries a tool's output back into the conversation.
// The ID matches the originating tool call.
type ToolResultMessage struct {
	id        string
	result    string
	errText   string
	timestamp time.Time
}

// NewToolResultMessage creates a tool result; errText is empty on success
func NewToolResultMessage(callID, result, errText string) *ToolResultMessage {
	return &ToolResultMessage{id: callID, result: result, errText: errText, timestamp: time.Now()}
}

func (m *ToolResultMessage) ID() string           { return m.id }
func (m *ToolResultMessage) Type() MessageType    { return MessageTypeToolResult }
func (m *ToolResultMessage) Thinking() string     { return "" }
func (m *ToolResultMessage) Timestamp() time.Time { return m.timestamp }

func (m *ToolResultMessage) Content() string {
	if m.errText != "" {
		return fmt.Sprintf("Error: %s", m.errText)
	}
	return m.result
}

func (m *ToolResultMessage) TruncatedString() string {
	return fmt.Sprintf("[tool_result] %s", truncateOneLine(m.Content(), 80))
}

// IsError reports whether the tool invocation failed
func (m *ToolResultMessage) IsError() bool { return m.errText != "" }
