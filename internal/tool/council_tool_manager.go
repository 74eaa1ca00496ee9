package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/smoldhq/smold/pkg/message"
)

// Consultant is the council surface this manager needs. Satisfied by
// *council.Council.
type Consultant interface {
	Consult(ctx context.Context, prompt, contextText string) (string, error)
}

// CouncilToolManager exposes council consultation as a tool. Consultations
// call external paid APIs, so the user is asked to confirm before each one.
type CouncilToolManager struct {
	registry

	consultant Consultant
	confirm    func(question string) (string, error)
}

// NewCouncilToolManager creates a council tool manager. confirm is asked
// before each consultation; pass nil to skip confirmation (one-shot mode).
func NewCouncilToolManager(consultant Consultant, confirm func(question string) (string, error)) *CouncilToolManager {
	m := &CouncilToolManager{
		registry:   newRegistry(),
		consultant: consultant,
		confirm:    confirm,
	}
	m.registerCouncilTools()
	return m
}

func (m *CouncilToolManager) registerCouncilTools() {
	m.RegisterTool("CouncilConsultation", "Consult a council of AI specialists in parallel for expert technical advice on hard problems: architectural decisions, algorithm design, or reviews that benefit from multiple perspectives. This makes API calls to external services and asks the user for confirmation first. Use it sparingly.",
		[]message.ToolArgument{
			{Name: "prompt", Description: "The main question or request for the council", Required: true, Type: "string"},
			{Name: "context", Description: "Additional context to help the specialists understand the problem", Required: false, Type: "string"},
		},
		m.handleConsultation)
}

func (m *CouncilToolManager) handleConsultation(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	prompt, ok := args["prompt"].(string)
	if !ok || strings.TrimSpace(prompt) == "" {
		return message.NewToolResultError("prompt parameter is required"), nil
	}
	contextText, _ := args["context"].(string)

	if m.confirm != nil {
		answer, err := m.confirm("Consult the council of AI specialists? This makes external API calls and may consume credits (yes/no)")
		if err != nil {
			return message.NewToolResultError(fmt.Sprintf("failed to read confirmation: %v", err)), nil
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "yes" && answer != "y" {
			return message.NewToolResultText("Council consultation cancelled by user. No external API calls were made."), nil
		}
	}

	report, err := m.consultant.Consult(ctx, prompt, contextText)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("council consultation failed: %v", err)), nil
	}
	return message.NewToolResultText(report), nil
}
