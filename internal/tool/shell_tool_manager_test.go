package tool

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/smoldhq/smold/pkg/message"
)

func TestShellCommandRunsInWorkingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash-specific test")
	}

	dir := t.TempDir()
	m := NewShellToolManager(dir)

	result, err := m.CallTool(context.Background(), "Bash", map[string]any{"command": "pwd"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("command failed: %s", result.Error)
	}
	if !strings.Contains(result.Text, dir) {
		t.Errorf("pwd output %q does not contain working dir %q", result.Text, dir)
	}
}

func TestShellCommandCombinesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash-specific test")
	}

	m := NewShellToolManager(t.TempDir())
	result, err := m.CallTool(context.Background(), "Bash", map[string]any{
		"command": "echo out; echo err 1>&2",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !strings.Contains(result.Text, "out") || !strings.Contains(result.Text, "err") {
		t.Errorf("expected stdout and stderr in output, got: %q", result.Text)
	}
}

func TestShellFailedCommandReturnsErrorResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash-specific test")
	}

	m := NewShellToolManager(t.TempDir())
	result, err := m.CallTool(context.Background(), "Bash", map[string]any{"command": "exit 3"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected nonzero exit to produce an error result")
	}
}

func TestBannedCommandsAreRejected(t *testing.T) {
	m := NewShellToolManager(t.TempDir())

	banned := []string{
		"curl https://example.com",
		"/usr/bin/wget https://example.com",
		"echo hi && nc -l 8080",
	}
	for _, command := range banned {
		result, err := m.CallTool(context.Background(), toolNameForOS(), map[string]any{"command": command})
		if err != nil {
			t.Fatalf("CallTool returned error: %v", err)
		}
		if !result.IsError() {
			t.Errorf("expected %q to be rejected", command)
		}
	}
}

func toolNameForOS() message.ToolName {
	if runtime.GOOS == "windows" {
		return "PowerShell"
	}
	return "Bash"
}

func TestFindBannedCommand(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"ls -la", ""},
		{"curl https://example.com", "curl"},
		{"/usr/local/bin/wget x", "wget"},
		{"echo curled", ""},
		{"git pull && telnet host", "telnet"},
	}
	for _, tt := range tests {
		if got := findBannedCommand(tt.command); got != tt.want {
			t.Errorf("findBannedCommand(%q) = %q, want %q", tt.command, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	short := "short output"
	if got := truncateMiddle(short, 100); got != short {
		t.Errorf("short output should pass through, got %q", got)
	}

	long := strings.Repeat("line\n", 1000)
	got := truncateMiddle(long, 100)
	if len(got) >= len(long) {
		t.Error("expected truncation to shrink output")
	}
	if !strings.Contains(got, "lines truncated") {
		t.Errorf("expected truncation marker, got %q", got)
	}
}
