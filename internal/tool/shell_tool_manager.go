package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/smoldhq/smold/pkg/message"
)

const (
	defaultShellTimeout = 30 * time.Minute
	maxShellTimeout     = 10 * time.Minute
	maxShellOutputChars = 30000
)

// bannedShellCommands are blocked to reduce prompt-injection blast radius.
// Network fetchers have a dedicated tool, and browsers have no business here.
var bannedShellCommands = []string{
	"alias", "curl", "curlie", "wget", "axel", "aria2c", "nc", "telnet",
	"lynx", "w3m", "links", "httpie", "xh", "http-prompt", "chrome",
	"firefox", "safari",
}

// ShellToolManager runs shell commands in the working directory. It uses bash
// on Unix-like systems and PowerShell on Windows.
type ShellToolManager struct {
	registry

	workingDir string
}

// NewShellToolManager creates a shell tool manager rooted at workingDir.
func NewShellToolManager(workingDir string) *ShellToolManager {
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		absWorkingDir = workingDir
	}

	m := &ShellToolManager{
		registry:   newRegistry(),
		workingDir: absWorkingDir,
	}
	m.registerShellTools()
	return m
}

// SetWorkingDir changes the directory commands run in.
func (m *ShellToolManager) SetWorkingDir(dir string) {
	if absDir, err := filepath.Abs(dir); err == nil {
		m.workingDir = absDir
	}
}

func (m *ShellToolManager) registerShellTools() {
	name := message.ToolName("Bash")
	desc := "Run a bash command in the working directory and return its output. An optional timeout in milliseconds may be provided (max 600000). Output longer than 30000 characters is truncated in the middle. Avoid search and read utilities like find, grep, cat, head, and ls; use the Grep, Glob, View, and LS tools instead. Combine multiple commands with ';' or '&&'."
	if runtime.GOOS == "windows" {
		name = "PowerShell"
		desc = "Run a PowerShell command in the working directory and return its output. An optional timeout in milliseconds may be provided (max 600000). Output longer than 30000 characters is truncated in the middle."
	}

	m.RegisterTool(name, message.ToolDescription(desc),
		[]message.ToolArgument{
			{Name: "command", Description: "The command to execute", Required: true, Type: "string"},
			{Name: "timeout", Description: "Optional timeout in milliseconds (max 600000)", Required: false, Type: "number"},
		},
		m.handleShellCommand)
}

func (m *ShellToolManager) handleShellCommand(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	command, ok := args["command"].(string)
	if !ok || command == "" {
		return message.NewToolResultError("command parameter is required"), nil
	}

	if banned := findBannedCommand(command); banned != "" {
		return message.NewToolResultError(fmt.Sprintf("command contains banned command %q; use the dedicated tools for these operations", banned)), nil
	}

	timeout := defaultShellTimeout
	if ms, exists := toolArgInt(args, "timeout"); exists && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
		if timeout > maxShellTimeout {
			timeout = maxShellTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, "powershell", "-NoProfile", "-Command", command)
	} else {
		cmd = exec.CommandContext(cmdCtx, "bash", "-c", command)
	}
	cmd.Dir = m.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return message.NewToolResultError(fmt.Sprintf("command timed out after %s", timeout)), nil
	}

	output := combineShellOutput(stdout.String(), stderr.String())
	output = truncateMiddle(output, maxShellOutputChars)

	if runErr != nil {
		if output == "" {
			return message.NewToolResultError(fmt.Sprintf("command failed: %v", runErr)), nil
		}
		return message.NewToolResultError(fmt.Sprintf("command failed: %v\n%s", runErr, output)), nil
	}

	return message.NewToolResultText(output), nil
}

// findBannedCommand returns the first banned token found in the command, or
// "" when the command is clean. Tokens with paths are checked by basename.
func findBannedCommand(command string) string {
	for _, token := range strings.Fields(command) {
		token = strings.Trim(token, "\"'")
		name := filepath.Base(token)
		for _, banned := range bannedShellCommands {
			if token == banned || name == banned {
				return banned
			}
		}
	}
	return ""
}

func combineShellOutput(stdout, stderr string) string {
	stdout = strings.TrimRight(stdout, "\n")
	stderr = strings.TrimRight(stderr, "\n")
	switch {
	case stdout != "" && stderr != "":
		return stdout + "\n" + stderr
	case stderr != "":
		return stderr
	default:
		return stdout
	}
}

// truncateMiddle keeps the head and tail of oversized output and reports how
// many lines were dropped in between.
func truncateMiddle(content string, limit int) string {
	if len(content) <= limit {
		return content
	}

	half := limit / 2
	middle := content[half : len(content)-half]
	dropped := strings.Count(middle, "\n")
	return fmt.Sprintf("%s\n\n... [%d lines truncated] ...\n\n%s", content[:half], dropped, content[len(content)-half:])
}
