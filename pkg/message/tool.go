package message

import "context"

// ToolName identifies a tool as exposed to the model
type ToolName string

func (t ToolName) String() string { return string(t) }

// ToolDescription is the human/model readable summary of a tool
type ToolDescription string

func (t ToolDescription) String() string { return string(t) }

// ToolArgument describes one parameter of a tool's schema
type ToolArgument struct {
	Name        string
	Description string
	Required    bool
	Type        string
}

// ToolArgumentValues holds the decoded arguments of a tool invocation
type ToolArgumentValues map[string]any

// ToolResult is the outcome of running a tool. Error is empty on success.
type ToolResult struct {
	Text  string
	Error string
}

// NewToolResultText creates a successful tool result
func NewToolResultText(text string) ToolResult {
	return ToolResult{Text: text}
}

// NewToolResultError creates a failed tool result. Tool failures travel as
// results the model can read, not as Go errors.
func NewToolResultError(errText string) ToolResult {
	return ToolResult{Error: errText}
}

// IsError reports whether the invocation failed
func (r ToolResult) IsError() bool { return r.Error != "" }

// Tool is a callable capability exposed to the model
type Tool interface {
	Name() ToolName
	Description() ToolDescription
	Arguments() []ToolArgument
	Handler() func(ctx context.Context, args ToolArgumentValues) (ToolResult, error)
}
