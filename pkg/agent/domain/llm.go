package domain

import (
	"context"
	"errors"

	"github.com/smoldhq/smold/pkg/message"
)

var ErrInvalidClientType = errors.New("invalid client type for tool calling")

// LLM represents the base language model interface for basic chat functionality
type LLM interface {
	// Chat sends a message to the LLM and returns the response
	Chat(ctx context.Context, messages []message.Message) (message.Message, error)
}

// ToolCallingLLM extends LLM with tool calling capabilities
type ToolCallingLLM interface {
	LLM

	// SetToolManager sets the tool manager for this client
	SetToolManager(toolManager ToolManager)

	// ChatWithToolChoice sends a message to the LLM with tool choice control
	ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice ToolChoice) (message.Message, error)
}

// ToolChoiceType controls whether the model may, must, or must not call tools
type ToolChoiceType int

const (
	ToolChoiceAuto ToolChoiceType = iota
	ToolChoiceAny
	ToolChoiceTool
	ToolChoiceNone
)

// ToolChoice selects the tool calling mode; Name is set for ToolChoiceTool
type ToolChoice struct {
	Type ToolChoiceType
	Name message.ToolName
}

// ToolManager exposes a set of tools to the model and dispatches calls
type ToolManager interface {
	GetTool(name message.ToolName) (message.Tool, bool)
	GetTools() map[message.ToolName]message.Tool
	CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error)
	RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error))
}
