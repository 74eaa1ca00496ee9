package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeChanger struct {
	dir string
}

func (f *fakeChanger) ChangeDirectory(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	f.dir = filepath.Clean(path)
	return nil
}

func (f *fakeChanger) WorkingDir() string { return f.dir }

func TestChangeDirectoryTool(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	changer := &fakeChanger{dir: root}
	m := NewCdToolManager()
	m.BindChanger(changer)

	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": "src"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("ChangeDirectory failed: %s", result.Error)
	}
	if changer.WorkingDir() != sub {
		t.Errorf("working dir = %q, want %q", changer.WorkingDir(), sub)
	}
	if !strings.Contains(result.Text, "Previous: "+root) {
		t.Errorf("result does not report previous directory: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Current: "+sub) {
		t.Errorf("result does not report current directory: %q", result.Text)
	}
}

func TestChangeDirectoryToolReturnsToPrevious(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	changer := &fakeChanger{dir: root}
	m := NewCdToolManager()
	m.BindChanger(changer)

	if result, _ := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": sub}); result.IsError() {
		t.Fatalf("setup cd failed: %s", result.Error)
	}
	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": "-"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("cd - failed: %s", result.Error)
	}
	if changer.WorkingDir() != root {
		t.Errorf("working dir = %q, want %q", changer.WorkingDir(), root)
	}
}

func TestChangeDirectoryToolNoPreviousDirectory(t *testing.T) {
	m := NewCdToolManager()
	m.BindChanger(&fakeChanger{dir: t.TempDir()})

	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": "-"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected cd - with no history to produce an error result")
	}
}

func TestChangeDirectoryToolRejectsMissingDirectory(t *testing.T) {
	m := NewCdToolManager()
	m.BindChanger(&fakeChanger{dir: t.TempDir()})

	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": "no-such-dir"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected missing directory to produce an error result")
	}
}

func TestChangeDirectoryToolMissingPath(t *testing.T) {
	m := NewCdToolManager()
	m.BindChanger(&fakeChanger{dir: t.TempDir()})

	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected missing path to produce an error result")
	}
}

func TestChangeDirectoryToolUnbound(t *testing.T) {
	m := NewCdToolManager()

	result, err := m.CallTool(context.Background(), "ChangeDirectory", map[string]any{"path": "/tmp"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected unbound manager to produce an error result")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := expandPath("~"); got != home {
		t.Errorf("expandPath(~) = %q, want %q", got, home)
	}
	if got := expandPath("~/projects"); got != filepath.Join(home, "projects") {
		t.Errorf("expandPath(~/projects) = %q", got)
	}

	t.Setenv("SMOLD_TEST_DIR", "/opt/data")
	if got := expandPath("$SMOLD_TEST_DIR/logs"); got != "/opt/data/logs" {
		t.Errorf("env expansion = %q", got)
	}
}
