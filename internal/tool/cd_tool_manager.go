package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smoldhq/smold/pkg/message"
)

// DirectoryChanger is the agent surface this manager needs. Satisfied by
// *app.Agent.
type DirectoryChanger interface {
	ChangeDirectory(path string) error
	WorkingDir() string
}

// CdToolManager lets the model move the agent's working directory. The
// changer is bound after the agent is constructed, since the agent owns the
// composite this manager sits in.
type CdToolManager struct {
	registry

	changer DirectoryChanger
	prevDir string
}

// NewCdToolManager creates a cd tool manager with no changer bound yet.
func NewCdToolManager() *CdToolManager {
	m := &CdToolManager{registry: newRegistry()}
	m.registerCdTools()
	return m
}

// BindChanger attaches the directory changer. Tool calls before binding
// return an error result.
func (m *CdToolManager) BindChanger(changer DirectoryChanger) {
	m.changer = changer
}

func (m *CdToolManager) registerCdTools() {
	m.RegisterTool("ChangeDirectory", "Change the agent's working directory. Relative paths used by other tools resolve against it afterwards. Supports absolute and relative paths, \"~\" for the home directory, environment variables, and \"-\" for the previous directory.",
		[]message.ToolArgument{
			{Name: "path", Description: "The directory to change to", Required: true, Type: "string"},
		},
		m.handleChangeDirectory)
}

func (m *CdToolManager) handleChangeDirectory(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return message.NewToolResultError("path parameter is required"), nil
	}
	if m.changer == nil {
		return message.NewToolResultError("changing directories is not available in this session"), nil
	}

	target := strings.TrimSpace(path)
	if target == "-" {
		if m.prevDir == "" {
			return message.NewToolResultError("no previous directory to return to"), nil
		}
		target = m.prevDir
	}
	target = expandPath(target)

	previous := m.changer.WorkingDir()
	if err := m.changer.ChangeDirectory(target); err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to change directory: %v", err)), nil
	}
	m.prevDir = previous

	return message.NewToolResultText(fmt.Sprintf("Directory changed successfully!\n\nPrevious: %s\nCurrent: %s", previous, m.changer.WorkingDir())), nil
}

// expandPath resolves "~" and environment variables in a user-supplied path.
func expandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	} else if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
