package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestFSManager(t *testing.T) (*FileSystemToolManager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewFileSystemToolManager(DefaultFileSystemConfig(), dir), dir
}

func TestViewReturnsNumberedLines(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": "sample.txt"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("View failed: %s", result.Error)
	}
	if !strings.Contains(result.Text, "     1\tfirst") {
		t.Errorf("expected numbered first line, got: %q", result.Text)
	}
	if !strings.Contains(result.Text, "     3\tthird") {
		t.Errorf("expected numbered third line, got: %q", result.Text)
	}
}

func TestViewOffsetAndLimit(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "long.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\ne\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "View", map[string]any{
		"file_path": path,
		"offset":    float64(2),
		"limit":     float64(2),
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if strings.Contains(result.Text, "1\ta") {
		t.Errorf("offset should skip line 1, got: %q", result.Text)
	}
	if !strings.Contains(result.Text, "2\tb") || !strings.Contains(result.Text, "3\tc") {
		t.Errorf("expected lines 2-3, got: %q", result.Text)
	}
	if strings.Contains(result.Text, "4\td") {
		t.Errorf("limit should stop before line 4, got: %q", result.Text)
	}
}

func TestWriteRequiresPriorRead(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "guarded.txt")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "Write", map[string]any{
		"file_path": path,
		"content":   "overwritten",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected write without prior View to be rejected")
	}

	// After viewing, the write goes through.
	if _, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": path}); err != nil {
		t.Fatalf("View failed: %v", err)
	}
	result, err = m.CallTool(context.Background(), "Write", map[string]any{
		"file_path": path,
		"content":   "overwritten",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("expected write after View to succeed: %s", result.Error)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "overwritten" {
		t.Errorf("file content = %q, want %q", content, "overwritten")
	}
}

func TestWriteCreatesNewFileWithoutRead(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "nested", "new.txt")

	result, err := m.CallTool(context.Background(), "Write", map[string]any{
		"file_path": path,
		"content":   "hello",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("expected new file creation to succeed: %s", result.Error)
	}
	if !strings.Contains(result.Text, "File created successfully") {
		t.Errorf("unexpected result text: %q", result.Text)
	}
}

func TestEditReplacesExactString(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "code.go")
	if err := os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": path}); err != nil {
		t.Fatalf("View failed: %v", err)
	}

	result, err := m.CallTool(context.Background(), "Edit", map[string]any{
		"file_path":  path,
		"old_string": "func main() {}",
		"new_string": "func main() { run() }",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("Edit failed: %s", result.Error)
	}
	if !strings.Contains(result.Text, "-func main() {}") || !strings.Contains(result.Text, "+func main() { run() }") {
		t.Errorf("expected a unified diff in the result, got: %q", result.Text)
	}

	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "run()") {
		t.Errorf("edit not applied, content: %q", content)
	}
}

func TestEditRejectsAmbiguousMatch(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "dup.txt")
	if err := os.WriteFile(path, []byte("x\nx\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": path}); err != nil {
		t.Fatalf("View failed: %v", err)
	}

	result, err := m.CallTool(context.Background(), "Edit", map[string]any{
		"file_path":  path,
		"old_string": "x",
		"new_string": "y",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected ambiguous edit to be rejected")
	}

	// replace_all resolves the ambiguity.
	result, err = m.CallTool(context.Background(), "Edit", map[string]any{
		"file_path":   path,
		"old_string":  "x",
		"new_string":  "y",
		"replace_all": true,
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("replace_all edit failed: %s", result.Error)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "y\ny\n" {
		t.Errorf("content = %q, want %q", content, "y\ny\n")
	}
}

func TestPathOutsideAllowedDirectoriesIsRejected(t *testing.T) {
	m, _ := newTestFSManager(t)
	outside := filepath.Join(t.TempDir(), "outside.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": outside})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected access outside allowed directories to be rejected")
	}
}

func TestBlacklistedFileIsRejected(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("API_KEY=secret"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": path})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected blacklisted file read to be rejected")
	}
}

func TestWriteRejectedWhenFileChangedAfterRead(t *testing.T) {
	m, dir := newTestFSManager(t)
	path := filepath.Join(dir, "racy.txt")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": path}); err != nil {
		t.Fatalf("View failed: %v", err)
	}

	// Simulate an external modification after the read.
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatalf("failed to modify fixture: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("failed to bump mtime: %v", err)
	}

	result, err := m.CallTool(context.Background(), "Write", map[string]any{
		"file_path": path,
		"content":   "v3",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected write to be rejected after external modification")
	}
}

func TestLSListsDirectoriesBeforeFiles(t *testing.T) {
	m, dir := newTestFSManager(t)
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	result, err := m.CallTool(context.Background(), "LS", map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("LS failed: %s", result.Error)
	}
	if !strings.Contains(result.Text, "subdir/") {
		t.Errorf("expected subdir listing, got: %q", result.Text)
	}
	if !strings.Contains(result.Text, "file.txt") {
		t.Errorf("expected file listing, got: %q", result.Text)
	}
	if strings.Contains(result.Text, ".hidden") {
		t.Errorf("hidden entries should be skipped, got: %q", result.Text)
	}
}

func TestSetWorkingDirExtendsAllowList(t *testing.T) {
	m, _ := newTestFSManager(t)
	newDir := t.TempDir()

	if err := m.SetWorkingDir(newDir); err != nil {
		t.Fatalf("SetWorkingDir failed: %v", err)
	}
	if m.WorkingDir() != newDir {
		t.Errorf("WorkingDir() = %q, want %q", m.WorkingDir(), newDir)
	}

	path := filepath.Join(newDir, "here.txt")
	if err := os.WriteFile(path, []byte("ok"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	result, err := m.CallTool(context.Background(), "View", map[string]any{"file_path": "here.txt"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.IsError() {
		t.Fatalf("expected read in new working dir to succeed: %s", result.Error)
	}
}

func TestCallUnknownToolReturnsErrorResult(t *testing.T) {
	m, _ := newTestFSManager(t)
	result, err := m.CallTool(context.Background(), "Nope", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected error result for unknown tool")
	}
}
