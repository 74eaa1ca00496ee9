package app

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestBuildSystemPromptFillsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	prompt := BuildSystemPrompt(dir, "gpt-4o-mini")

	if strings.Contains(prompt, "{platform}") || strings.Contains(prompt, "{date}") ||
		strings.Contains(prompt, "{is_git_repo}") || strings.Contains(prompt, "{model}") {
		t.Error("unfilled placeholders remain in the prompt")
	}
	if !strings.Contains(prompt, "Platform: "+runtime.GOOS) {
		t.Error("platform not filled in")
	}
	if !strings.Contains(prompt, "Model: gpt-4o-mini") {
		t.Error("model not filled in")
	}
	if !strings.Contains(prompt, "Is directory a git repo: No") {
		t.Error("a fresh temp dir is not a git repo")
	}
	if !strings.Contains(prompt, "We are now in the "+dir+" working directory.") {
		t.Error("working directory line missing")
	}
	if !strings.Contains(prompt, "main.go") {
		t.Error("directory contents missing")
	}
}

func TestDirectoryListing(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"src", "node_modules", ".hidden"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	listing := directoryListing(dir)

	if listing != "a.txt  b.txt  src/" {
		t.Errorf("listing = %q", listing)
	}
}

func TestDirectoryListingEmpty(t *testing.T) {
	if got := directoryListing(t.TempDir()); got != "(empty directory)" {
		t.Errorf("listing = %q, want (empty directory)", got)
	}
}

func TestSkipByDefault(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"node_modules", true},
		{".git", true},
		{".env", true},
		{"cache.pyc", true},
		{"smold.egg-info", true},
		{"main.go", false},
		{"src", false},
	}
	for _, tt := range tests {
		if got := skipByDefault(tt.name); got != tt.want {
			t.Errorf("skipByDefault(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolveWorkingDir(t *testing.T) {
	base := t.TempDir()
	sub := filepath.Join(base, "child")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveWorkingDir(base, "child")
	if err != nil {
		t.Fatalf("relative resolution failed: %v", err)
	}
	if got != sub {
		t.Errorf("resolved %q, want %q", got, sub)
	}

	got, err = resolveWorkingDir(base, sub)
	if err != nil || got != sub {
		t.Errorf("absolute resolution = %q, %v", got, err)
	}

	if _, err := resolveWorkingDir(base, "file.txt"); err == nil {
		t.Error("expected error when target is a file")
	}
	if _, err := resolveWorkingDir(base, "missing"); err == nil {
		t.Error("expected error when target does not exist")
	}
}
