package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/smoldhq/smold/pkg/message"
)

// InputToolManager lets the model ask the user a question mid-task instead of
// guessing. It blocks on terminal input, so it is only registered in
// interactive sessions.
type InputToolManager struct {
	registry

	// prompter is swappable for tests.
	prompter func(question string) (string, error)
}

// NewInputToolManager creates an input tool manager that prompts on the terminal.
func NewInputToolManager() *InputToolManager {
	m := &InputToolManager{
		registry: newRegistry(),
		prompter: terminalPrompt,
	}
	m.registerInputTools()
	return m
}

func (m *InputToolManager) registerInputTools() {
	m.RegisterTool("UserInput", "Ask the user a question and wait for their typed answer. Use this when a decision genuinely needs user input, such as confirming a destructive operation or choosing between alternatives.",
		[]message.ToolArgument{
			{Name: "question", Description: "The question to ask the user", Required: true, Type: "string"},
		},
		m.handleUserInput)
}

func (m *InputToolManager) handleUserInput(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	question, ok := args["question"].(string)
	if !ok || question == "" {
		return message.NewToolResultError("question parameter is required"), nil
	}

	answer, err := m.prompter(question)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to read user input: %v", err)), nil
	}

	return message.NewToolResultText(strings.TrimSpace(answer)), nil
}

func terminalPrompt(question string) (string, error) {
	prompt := promptui.Prompt{
		Label: question,
	}
	return prompt.Run()
}
