package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
)

// SlashCommand represents a command that starts with /
type SlashCommand struct {
	Name        string
	Description string
	Handler     func(a *Agent, args []string) bool // Returns true if should exit
}

// getSlashCommands returns all available slash commands
func getSlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "help",
			Description: "Show available commands and usage information",
			Handler: func(a *Agent, args []string) bool {
				showInteractiveHelp()
				return false
			},
		},
		{
			Name:        "clear",
			Description: "Clear conversation history and start fresh",
			Handler: func(a *Agent, args []string) bool {
				a.ClearConversation()
				fmt.Println("🧹 Conversation history cleared.")
				return false
			},
		},
		{
			Name:        "context",
			Description: "Show context window usage",
			Handler: func(a *Agent, args []string) bool {
				showContextInfo(a)
				return false
			},
		},
		{
			Name:        "cd",
			Description: "Change the working directory (/cd <path>)",
			Handler: func(a *Agent, args []string) bool {
				if len(args) == 0 {
					fmt.Println("Usage: /cd <path>")
					return false
				}
				if err := a.ChangeDirectory(args[0]); err != nil {
					fmt.Printf("❌ %v\n", err)
					return false
				}
				fmt.Printf("📁 Now in %s\n", a.WorkingDir())
				return false
			},
		},
		{
			Name:        "pro",
			Description: "Toggle the stronger model for harder tasks",
			Handler: func(a *Agent, args []string) bool {
				model, err := a.TogglePro()
				if err != nil {
					fmt.Printf("❌ %v\n", err)
					return false
				}
				fmt.Printf("🧠 Now using %s\n", model)
				return false
			},
		},
		{
			Name:        "quit",
			Description: "Exit the interactive session",
			Handler: func(a *Agent, args []string) bool {
				fmt.Println("👋 Goodbye!")
				return true
			},
		},
		{
			Name:        "exit",
			Description: "Exit the interactive session (alias for quit)",
			Handler: func(a *Agent, args []string) bool {
				fmt.Println("👋 Goodbye!")
				return true
			},
		},
	}
}

// handleSlashCommand processes commands that start with /
// Returns true if the command requests program exit, false otherwise
func handleSlashCommand(input string, a *Agent) bool {
	// Just "/" opens the command selector
	if strings.TrimSpace(input) == "/" {
		return showCommandSelector(a)
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	commandName := strings.TrimPrefix(parts[0], "/")
	commands := getSlashCommands()

	for _, cmd := range commands {
		if cmd.Name == commandName {
			return cmd.Handler(a, parts[1:])
		}
	}

	fmt.Printf("❌ Unknown command: /%s\n", commandName)
	fmt.Println("💡 Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  /%s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Println("\n💡 Tip: Type just '/' to see an interactive command selector!")
	return false
}

// showCommandSelector shows an interactive command selector using promptui
func showCommandSelector(a *Agent) bool {
	commands := getSlashCommands()

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "{{ .Name | red | cyan }}",
	}

	searcher := func(input string, index int) bool {
		command := commands[index]
		name := strings.ReplaceAll(strings.ToLower(command.Name), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		Label:     "Choose a command",
		Items:     commands,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Println("\nCancelled.")
			return false
		}
		fmt.Printf("Command selection failed: %v\n", err)
		return false
	}
	return commands[i].Handler(a, nil)
}

// StartInteractiveMode runs the readline-based REPL
func StartInteractiveMode(ctx context.Context, a *Agent) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       "",
		AutoComplete:      createAutoCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		HistoryLimit:      2000,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize interactive mode: %v\n", err)
		fmt.Println("💡 Please use one-shot mode instead: smold \"your request here\"")
		return
	}
	defer rl.Close()

	fmt.Printf("🧠 Model: %s\n", a.Model())
	fmt.Printf("📁 Working directory: %s\n", a.WorkingDir())
	fmt.Println("💬 Commands start with '/', everything else goes to the agent!")
	fmt.Println(strings.Repeat("=", 60))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(input, a) {
				break
			}
			continue
		}

		// Run the turn with a cancellable context so Ctrl+C aborts the
		// in-flight request instead of killing the session.
		execCtx, cancel := context.WithCancel(ctx)
		stopWatch := watchInterrupt(execCtx, cancel)

		response, runErr := a.Run(execCtx, input)

		wasCanceled := execCtx.Err() == context.Canceled
		stopWatch()

		if runErr != nil {
			if wasCanceled {
				fmt.Println("🔄 Ready for next command.")
			} else {
				fmt.Printf("❌ Error: %v\n", runErr)
			}
			continue
		}

		fmt.Printf("\n🤖 %s\n\n%s\n", a.Model(), response)
	}
}

// watchInterrupt cancels the turn when Ctrl+C arrives. The returned stop
// function must be called once the turn finishes; it cancels the context
// first so the watcher goroutine exits without touching the signal channel.
func watchInterrupt(execCtx context.Context, cancel context.CancelFunc) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)

	go func() {
		select {
		case <-sigChan:
			fmt.Println()
			cancel()
		case <-execCtx.Done():
		}
	}()

	return func() {
		cancel()
		signal.Stop(sigChan)
	}
}

// createAutoCompleter creates an autocompletion function for readline
func createAutoCompleter() *readline.PrefixCompleter {
	commands := getSlashCommands()
	var pcItems []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		pcItems = append(pcItems, readline.PcItem("/"+cmd.Name))
	}
	pcItems = append(pcItems, readline.PcItem("/"))
	return readline.NewPrefixCompleter(pcItems...)
}

func showInteractiveHelp() {
	commands := getSlashCommands()
	fmt.Println("\n📚 Interactive Commands:")
	fmt.Println("  /                - Show interactive command selector")
	for _, cmd := range commands {
		fmt.Printf("  /%-15s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Println("\n⌨️  Keys:")
	fmt.Println("  Ctrl+C           - Cancel current input or in-flight request")
	fmt.Println("  Tab              - Auto-complete commands")
	fmt.Println("  Arrow keys       - Navigate input and history")
	fmt.Println("\n💡 Example requests:")
	fmt.Println("  > List files in the current directory")
	fmt.Println("  > Explain what cmd/server/main.go does")
	fmt.Println("  > Write unit tests for the parser package")
}

func showContextInfo(a *Agent) {
	info := a.ContextInfo()
	fmt.Println("\n📊 Context Usage:")
	fmt.Printf("  💬 Interactions retained: %d\n", info.ConversationInteractions)
	fmt.Printf("  📨 Messages to the model: %d\n", info.TotalMessages)
	fmt.Printf("  🧾 System prompt tokens:  %d\n", info.SystemPromptTokens)
	fmt.Printf("  🗣️ Conversation tokens:   %d\n", info.ConversationTokens)
	fmt.Printf("  Σ  Total tokens:          %d (under limit: %v)\n", info.TotalTokens, info.UnderLimit)
	fmt.Printf("  %s\n", a.ConversationSummary())
}
