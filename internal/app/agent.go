package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/smoldhq/smold/internal/config"
	"github.com/smoldhq/smold/internal/tool"
	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/client"
	convctx "github.com/smoldhq/smold/pkg/context"
	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
)

// Agent drives the tool-calling conversation loop. The context manager is
// the only source of the message list sent to the model; the agent appends
// the live turn (user query, tool calls, tool results) on top of it and
// records the completed exchange when a final answer arrives.
//
// Not safe for concurrent use; the REPL owns it from a single goroutine.
type Agent struct {
	llm        domain.ToolCallingLLM
	tools      domain.ToolManager
	contextMgr *convctx.Manager
	logger     *logger.Logger

	backend       string
	model         string
	proModel      string
	maxTokens     int
	maxIterations int
	usePro        bool

	workingDir string

	// Managers that track the working directory, re-pointed on cd
	fsManager     *tool.FileSystemToolManager
	searchManager *tool.SearchToolManager
	shellManager  *tool.ShellToolManager
}

// AgentOptions collects the collaborators the shell wires up
type AgentOptions struct {
	LLM           domain.ToolCallingLLM
	Tools         domain.ToolManager
	ContextMgr    *convctx.Manager
	Settings      *config.Settings
	WorkingDir    string
	Logger        *logger.Logger
	FSManager     *tool.FileSystemToolManager
	SearchManager *tool.SearchToolManager
	ShellManager  *tool.ShellToolManager
}

// NewAgent creates an agent from pre-wired collaborators
func NewAgent(opts AgentOptions) *Agent {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Agent{
		llm:           opts.LLM,
		tools:         opts.Tools,
		contextMgr:    opts.ContextMgr,
		logger:        log,
		backend:       opts.Settings.LLM.Backend,
		model:         opts.Settings.LLM.Model,
		proModel:      opts.Settings.LLM.ProModel,
		maxTokens:     opts.Settings.LLM.MaxTokens,
		maxIterations: opts.Settings.Agent.MaxIterations,
		workingDir:    opts.WorkingDir,
		fsManager:     opts.FSManager,
		searchManager: opts.SearchManager,
		shellManager:  opts.ShellManager,
	}
}

// Run processes one user query to completion: the model is called with the
// retained history plus the live turn, tool calls are executed and fed back,
// and the finished exchange is recorded in the context manager.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("query must not be empty")
	}

	messages := a.contextMgr.FullContextForLLM(true)
	messages = append(messages, message.NewChatMessage(message.MessageTypeUser, query))

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.llm.ChatWithToolChoice(ctx, messages, domain.ToolChoice{Type: domain.ToolChoiceAuto})
		if err != nil {
			return "", errors.Wrap(err, "chat request failed")
		}
		a.annotateUsage(resp)

		switch resp := resp.(type) {
		case *message.ChatMessage:
			answer := resp.Content()
			a.contextMgr.AddInteraction(query, answer)
			a.logger.Debug("Turn complete", "iterations", i+1)
			return answer, nil

		case *message.ToolCallMessage:
			messages = append(messages, resp)
			fmt.Printf("🔧 Running tool: %s\n", resp.ToolName())

			result, err := a.executeToolCall(ctx, resp)
			if err != nil {
				return "", errors.Wrap(err, "tool execution failed")
			}
			printTruncatedToolResult(result)
			messages = append(messages, result)

		default:
			return "", errors.Errorf("unexpected response type: %T", resp)
		}
	}

	return "", errors.Errorf("exceeded maximum iterations (%d) without a final answer", a.maxIterations)
}

// annotateUsage attaches provider-reported token counts to the response and
// prints a one-line usage summary. Best effort; backends may not report.
func (a *Agent) annotateUsage(resp message.Message) {
	provider, ok := a.llm.(domain.TokenUsageProvider)
	if !ok {
		return
	}
	usage, ok := provider.LastTokenUsage()
	if !ok {
		return
	}
	if chat, isChat := resp.(*message.ChatMessage); isChat {
		chat.SetTokenUsage(usage.InputTokens, usage.OutputTokens)
	}
	fmt.Printf("📈 Tokens: in %d, out %d, total %d\n", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}

// executeToolCall dispatches one tool call and converts the structured
// result into a transcript message keyed by the call ID. Tool failures
// travel back to the model as error results, not Go errors.
func (a *Agent) executeToolCall(ctx context.Context, call *message.ToolCallMessage) (message.Message, error) {
	result, err := a.tools.CallTool(ctx, call.ToolName(), call.ToolArguments())
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return message.NewToolResultMessage(call.ID(), "", result.Error), nil
	}
	return message.NewToolResultMessage(call.ID(), result.Text, ""), nil
}

// ChangeDirectory moves the agent to a new working directory: the
// filesystem, search, and shell managers are re-pointed and the system
// prompt is regenerated, evicting history as needed to fit the budget.
func (a *Agent) ChangeDirectory(target string) error {
	dir, err := resolveWorkingDir(a.workingDir, target)
	if err != nil {
		return errors.Wrap(err, "cannot change directory")
	}

	if a.fsManager != nil {
		if err := a.fsManager.SetWorkingDir(dir); err != nil {
			return errors.Wrap(err, "cannot change directory")
		}
	}
	if a.searchManager != nil {
		a.searchManager.SetWorkingDir(dir)
	}
	if a.shellManager != nil {
		a.shellManager.SetWorkingDir(dir)
	}

	a.workingDir = dir
	a.contextMgr.RefreshWithSystemPrompt(BuildSystemPrompt(dir, a.Model()))
	a.logger.InfoWithIcon("📁", "Working directory changed", "dir", dir)
	return nil
}

// TogglePro switches between the base and the stronger model and returns
// the model now in use. The client is rebuilt and the system prompt
// regenerated so the model name in it stays accurate.
func (a *Agent) TogglePro() (string, error) {
	if a.proModel == "" {
		return "", errors.New("no pro model configured (set llm.pro_model in settings)")
	}

	usePro := !a.usePro
	model := a.model
	if usePro {
		model = a.proModel
	}

	llm, err := client.NewClient(a.backend, model, a.maxTokens)
	if err != nil {
		return "", errors.Wrapf(err, "failed to switch to model %s", model)
	}
	llm.SetToolManager(a.tools)

	a.llm = llm
	a.usePro = usePro
	a.contextMgr.RefreshWithSystemPrompt(BuildSystemPrompt(a.workingDir, model))
	return model, nil
}

// Model returns the model currently in use, preferring the client's own
// identifier and honoring the pro toggle otherwise
func (a *Agent) Model() string {
	if identifier, ok := a.llm.(domain.ModelIdentifier); ok {
		if id := identifier.ModelID(); id != "" {
			return id
		}
	}
	if a.usePro {
		return a.proModel
	}
	return a.model
}

// WorkingDir returns the agent's current working directory
func (a *Agent) WorkingDir() string { return a.workingDir }

// ClearConversation drops the retained history; the system prompt stays
func (a *Agent) ClearConversation() {
	a.contextMgr.ClearConversation()
}

// ContextInfo reports the current context occupancy
func (a *Agent) ContextInfo() convctx.ContextInfo {
	return a.contextMgr.ContextInfo()
}

// ConversationSummary renders a one-line description of the history state
func (a *Agent) ConversationSummary() string {
	return a.contextMgr.Summary()
}

// printTruncatedToolResult shows tool output compactly: errors in full,
// successful output limited to the last few lines.
func printTruncatedToolResult(msg message.Message) {
	content := msg.Content()
	if content == "" {
		fmt.Println("   ↳ (no output)")
		return
	}

	lines := strings.Split(content, "\n")
	if strings.HasPrefix(content, "Error:") {
		for _, line := range lines {
			fmt.Printf("   ↳ %s\n", line)
		}
		return
	}

	const maxLines = 5
	start := 0
	if len(lines) > maxLines {
		start = len(lines) - maxLines
		fmt.Printf("   ↳ ...(%d more lines)\n", start)
	}
	for _, line := range lines[start:] {
		if len(line) > 80 {
			line = line[:77] + "..."
		}
		fmt.Printf("   ↳ %s\n", line)
	}
}
