package tool

import (
	"context"
	"fmt"

	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/message"
)

// CompositeToolManager merges several tool managers into a single flat
// namespace. Later managers win on name collisions.
type CompositeToolManager struct {
	managers []domain.ToolManager
	toolsMap map[message.ToolName]message.Tool
}

// NewCompositeToolManager creates a composite over the given managers.
func NewCompositeToolManager(managers ...domain.ToolManager) *CompositeToolManager {
	composite := &CompositeToolManager{
		managers: managers,
		toolsMap: make(map[message.ToolName]message.Tool),
	}
	for _, manager := range managers {
		for _, tool := range manager.GetTools() {
			composite.toolsMap[tool.Name()] = tool
		}
	}
	return composite
}

func (c *CompositeToolManager) GetTool(name message.ToolName) (message.Tool, bool) {
	tool, exists := c.toolsMap[name]
	return tool, exists
}

func (c *CompositeToolManager) GetTools() map[message.ToolName]message.Tool {
	return c.toolsMap
}

func (c *CompositeToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := c.toolsMap[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool %s not found", name)), nil
	}
	return tool.Handler()(ctx, args)
}

// RegisterTool is not supported; register tools on the underlying managers.
func (c *CompositeToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)) {
	panic("RegisterTool not supported on CompositeToolManager - register on underlying managers instead")
}
