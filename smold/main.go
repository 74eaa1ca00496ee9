package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/smoldhq/smold/internal/app"
	"github.com/smoldhq/smold/internal/config"
	"github.com/smoldhq/smold/internal/council"
	"github.com/smoldhq/smold/internal/tool"
	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/client"
	convctx "github.com/smoldhq/smold/pkg/context"
	pkgLogger "github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/tokenizer"
)

const debugLogDir = "debug-logs"

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("smold - a lightweight CLI coding agent with bounded conversation memory")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  smold                                  # Interactive mode")
	fmt.Println("  smold \"Create a HTTP server\"           # One-shot mode")
	fmt.Println("  smold -b anthropic \"Analyze this code\" # Use the Anthropic backend")
	fmt.Println("  smold -w ./myproject -i                # Interactive mode in another directory")
	fmt.Println("  smold --pro \"Refactor the parser\"      # Use the stronger model")
	fmt.Println("  smold -d \"Debug this issue\"            # Mirror logs to a session file")
	fmt.Println()
}

func main() {
	ctx := context.Background()

	var backend = flag.String("b", "", "LLM backend (openai, anthropic, gemini, or ollama)")
	var backendLong = flag.String("backend", "", "LLM backend (openai, anthropic, gemini, or ollama)")
	var model = flag.String("m", "", "Model name to use")
	var modelLong = flag.String("model", "", "Model name to use")
	var workdir = flag.String("w", "", "Working directory")
	var workdirLong = flag.String("workdir", "", "Working directory")
	var settingsPath = flag.String("settings", "", "Path to settings file")
	var interactive = flag.Bool("i", false, "Start interactive mode even when a query is given")
	var interactiveLong = flag.Bool("interactive", false, "Start interactive mode even when a query is given")
	var pro = flag.Bool("pro", false, "Start with the stronger model")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var debug = flag.Bool("d", false, "Mirror debug logs to a session-stamped file")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	resolvedBackend := resolveStringFlag(*backend, *backendLong)
	resolvedModel := resolveStringFlag(*model, *modelLong)
	resolvedWorkdir := resolveStringFlag(*workdir, *workdirLong)
	resolvedVerbose := *verbose || *verboseLong
	resolvedInteractive := *interactive || *interactiveLong

	args := flag.Args()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Printf("⚠️  Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}
	if resolvedBackend != "" {
		settings.LLM.Backend = resolvedBackend
	}
	if resolvedModel != "" {
		settings.LLM.Model = resolvedModel
	}

	logLevel := pkgLogger.LogLevel(settings.Agent.LogLevel)
	if resolvedVerbose || *debug {
		logLevel = pkgLogger.LogLevelDebug
	}
	if *debug {
		sessionLogger, logPath, closeFn, logErr := pkgLogger.NewSessionFileLogger(debugLogDir, logLevel)
		if logErr != nil {
			fmt.Printf("⚠️  Warning: failed to enable debug file logging: %v\n", logErr)
			pkgLogger.SetGlobalLogLevel(logLevel)
		} else {
			defer closeFn()
			pkgLogger.SetGlobalLogger(sessionLogger)
			sessionLogger.DebugWithIcon("🐛", "Debug file logging enabled", "path", logPath)
		}
	} else {
		pkgLogger.SetGlobalLogLevel(logLevel)
	}
	logger := pkgLogger.NewComponentLogger("main")

	if err := config.ValidateSettings(settings); err != nil {
		logger.ErrorWithIcon("❌", "Settings validation failed", "error", err)
		os.Exit(1)
	}

	workingDirectory, err := resolveWorkingDirectory(resolvedWorkdir)
	if err != nil {
		logger.ErrorWithIcon("❌", "Working directory does not exist", "directory", resolvedWorkdir, "error", err)
		os.Exit(1)
	}

	// Token counting collaborator; history falls back to a length heuristic
	// when the model has no known encoding.
	var tok tokenizer.Tokenizer
	if tk, tokErr := tokenizer.NewTiktokenForModel(settings.LLM.Model); tokErr != nil {
		logger.WarnWithIcon("⚠️", "No tiktoken encoding for model, using length estimates",
			"model", settings.LLM.Model, "error", tokErr)
	} else {
		tok = tk
	}

	systemPrompt := app.BuildSystemPrompt(workingDirectory, settings.LLM.Model)
	contextMgr, err := convctx.NewManager(systemPrompt,
		settings.Context.MaxInteractions, settings.Context.MaxContextTokens,
		tok, pkgLogger.NewComponentLogger("context"))
	if err != nil {
		logger.ErrorWithIcon("❌", "Failed to create context manager", "error", err)
		os.Exit(1)
	}

	isInteractiveMode := resolvedInteractive || len(args) == 0

	// Tool managers; the composite merges them into one surface for the model
	fsManager := tool.NewFileSystemToolManager(tool.DefaultFileSystemConfig(), workingDirectory)
	searchManager := tool.NewSearchToolManager(workingDirectory)
	shellManager := tool.NewShellToolManager(workingDirectory)
	cdManager := tool.NewCdToolManager()

	managers := []domain.ToolManager{
		fsManager,
		searchManager,
		shellManager,
		cdManager,
		tool.NewWebToolManager(),
		tool.NewCalcToolManager(),
	}
	if isInteractiveMode {
		managers = append(managers, tool.NewInputToolManager())
	}

	for _, serverConfig := range settings.MCP.Servers {
		mcpManager, mcpErr := tool.NewMCPToolManager(ctx, serverConfig, pkgLogger.NewComponentLogger("mcp"))
		if mcpErr != nil {
			logger.WarnWithIcon("⚠️", "Failed to connect to MCP server",
				"server", serverConfig.Name, "error", mcpErr)
			continue
		}
		defer mcpManager.Close()
		managers = append(managers, mcpManager)
	}

	if settings.Council.Enabled {
		roster, rosterErr := config.LoadRoster(settings.Council.RosterPath)
		if rosterErr != nil {
			logger.ErrorWithIcon("❌", "Failed to load council roster", "error", rosterErr)
			os.Exit(1)
		}
		c := council.New(*roster, tok, pkgLogger.NewComponentLogger("council"))
		c.SetLogDir(filepath.Join(workingDirectory, ".smold", "council"))
		managers = append(managers, tool.NewCouncilToolManager(c, confirmConsultation))
	}

	toolManager := tool.NewCompositeToolManager(managers...)

	llm, err := client.NewClient(settings.LLM.Backend, settings.LLM.Model, settings.LLM.MaxTokens)
	if err != nil {
		logger.ErrorWithIcon("❌", "Failed to create LLM client", "error", err)
		os.Exit(1)
	}
	llm.SetToolManager(toolManager)

	agent := app.NewAgent(app.AgentOptions{
		LLM:           llm,
		Tools:         toolManager,
		ContextMgr:    contextMgr,
		Settings:      settings,
		WorkingDir:    workingDirectory,
		Logger:        pkgLogger.NewComponentLogger("agent"),
		FSManager:     fsManager,
		SearchManager: searchManager,
		ShellManager:  shellManager,
	})
	cdManager.BindChanger(agent)

	if *pro {
		proModel, proErr := agent.TogglePro()
		if proErr != nil {
			logger.ErrorWithIcon("❌", "Failed to enable pro model", "error", proErr)
			os.Exit(1)
		}
		logger.InfoWithIcon("🧠", "Pro model enabled", "model", proModel)
	}

	if len(args) > 0 && !resolvedInteractive {
		executeOneShot(ctx, agent, strings.Join(args, " "))
		return
	}

	if len(args) > 0 {
		// -i with a query: run the query first, then drop into the REPL
		executeOneShot(ctx, agent, strings.Join(args, " "))
	}
	app.StartInteractiveMode(ctx, agent)
}

func executeOneShot(ctx context.Context, agent *app.Agent, query string) {
	fmt.Print("\n")
	response, err := agent.Run(ctx, query)
	if err != nil {
		fmt.Printf("❌ Command execution failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Response:\n%s\n", response)
}

// resolveWorkingDirectory validates the -w flag or falls back to the
// process working directory
func resolveWorkingDirectory(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// confirmConsultation asks the user before a tool-initiated council
// consultation spends external API calls
func confirmConsultation(question string) (string, error) {
	prompt := promptui.Prompt{Label: question + " (yes/no)"}
	answer, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return "no", nil
		}
		return "", err
	}
	return answer, nil
}
