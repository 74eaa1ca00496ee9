package tool

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/smoldhq/smold/pkg/message"
)

// CalcToolManager evaluates arithmetic and logical expressions so the model
// does not have to do arithmetic in its head.
type CalcToolManager struct {
	registry
}

// NewCalcToolManager creates a calculator tool manager.
func NewCalcToolManager() *CalcToolManager {
	m := &CalcToolManager{registry: newRegistry()}
	m.registerCalcTools()
	return m
}

func (m *CalcToolManager) registerCalcTools() {
	m.RegisterTool("Calculate", "Evaluate an arithmetic or logical expression and return the result. Supports standard operators, comparisons, and builtin functions like abs, min, max, and len. Example: \"(1024 * 3) / 7\".",
		[]message.ToolArgument{
			{Name: "expression", Description: "The expression to evaluate", Required: true, Type: "string"},
		},
		m.handleCalculate)
}

func (m *CalcToolManager) handleCalculate(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	expression, ok := args["expression"].(string)
	if !ok || expression == "" {
		return message.NewToolResultError("expression parameter is required"), nil
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to compile expression %q: %v", expression, err)), nil
	}

	result, err := expr.Run(program, nil)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to evaluate expression %q: %v", expression, err)), nil
	}

	return message.NewToolResultText(fmt.Sprintf("%v", result)), nil
}
