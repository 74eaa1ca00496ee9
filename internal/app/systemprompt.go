// Package app wires the agent together: system prompt generation, the
// tool-calling conversation loop, and the interactive REPL.
package app

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

//go:embed system_message.txt
var systemMessageTemplate string

// Directory entries skipped in listings when the directory is not a git repo
var defaultIgnoreNames = map[string]bool{
	".git":         true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".tox":         true,
	".idea":        true,
	".vscode":      true,
}

// BuildSystemPrompt renders the system message for the given working
// directory and model: the embedded template with environment placeholders
// filled, a non-recursive directory listing, and a git status context block
// when inside a repository. Regenerated whenever the working directory or
// model changes.
func BuildSystemPrompt(workingDir, model string) string {
	isRepo := isGitRepo(workingDir)

	prompt := systemMessageTemplate
	prompt = strings.ReplaceAll(prompt, "{platform}", runtime.GOOS)
	prompt = strings.ReplaceAll(prompt, "{date}", time.Now().Format("1/2/2006"))
	prompt = strings.ReplaceAll(prompt, "{is_git_repo}", yesNo(isRepo))
	prompt = strings.ReplaceAll(prompt, "{model}", model)

	var b strings.Builder
	b.WriteString(prompt)
	fmt.Fprintf(&b, "\nWe are now in the %s working directory.\n", workingDir)
	fmt.Fprintf(&b, "Current directory contents: %s\n", directoryListing(workingDir))

	if isRepo {
		fmt.Fprintf(&b, "\n<context name=\"gitStatus\">%s</context>\n", gitStatusContext(workingDir))
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// isGitRepo reports whether dir is inside a git working tree
func isGitRepo(dir string) bool {
	out, err := exec.Command("git", "-C", dir, "rev-parse", "--is-inside-work-tree").Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// directoryListing returns a single-line ls-style listing of dir, with
// directories marked by a trailing slash. Git-ignored entries are filtered
// inside a repo; the default ignore set applies otherwise.
func directoryListing(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Sprintf("Error listing directory: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var ignored map[string]bool
	if isGitRepo(dir) {
		ignored = gitIgnoredSet(dir, names)
		ignored[".git"] = true // git check-ignore never flags .git itself
	}

	var items []string
	for _, entry := range entries {
		name := entry.Name()
		if ignored != nil {
			if ignored[name] {
				continue
			}
		} else if skipByDefault(name) {
			continue
		}
		if entry.IsDir() {
			items = append(items, name+"/")
		} else {
			items = append(items, name)
		}
	}
	sort.Strings(items)

	if len(items) == 0 {
		return "(empty directory)"
	}
	return strings.Join(items, "  ")
}

// gitIgnoredSet batch-checks names against the repo's ignore rules using
// `git check-ignore --stdin`. Returns an empty set on any error.
func gitIgnoredSet(dir string, names []string) map[string]bool {
	ignored := make(map[string]bool)
	if len(names) == 0 {
		return ignored
	}

	cmd := exec.Command("git", "-C", dir, "check-ignore", "--stdin")
	cmd.Stdin = strings.NewReader(strings.Join(names, "\n"))
	// Exit code 1 means nothing matched; still a valid empty answer.
	out, _ := cmd.Output()
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ignored[line] = true
		}
	}
	return ignored
}

func skipByDefault(name string) bool {
	if defaultIgnoreNames[name] {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.HasSuffix(name, ".pyc") || strings.HasSuffix(name, ".egg-info")
}

// gitStatusContext summarizes branch, main branch, working tree status, and
// recent commits. The snapshot is taken once per system prompt generation.
func gitStatusContext(dir string) string {
	branch := gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")

	mainBranch := "main"
	for _, line := range strings.Split(gitOutput(dir, "remote", "show", "origin"), "\n") {
		if strings.Contains(line, "HEAD branch") {
			parts := strings.Split(line, ":")
			mainBranch = strings.TrimSpace(parts[len(parts)-1])
		}
	}

	status := gitOutput(dir, "status", "--porcelain")
	if status == "" {
		status = "(clean)"
	}

	log := gitOutput(dir, "log", "--oneline", "--max-count=5")

	return fmt.Sprintf(`This is the git status at the start of the conversation. Note that this status is a snapshot in time, and will not update during the conversation.
Current branch: %s

Main branch (you will usually use this for PRs): %s

Status:
%s

Recent commits:
%s`, branch, mainBranch, status, log)
}

func gitOutput(dir string, args ...string) string {
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// resolveWorkingDir normalizes a cd target against the current working
// directory and verifies it is an existing directory.
func resolveWorkingDir(current, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(current, target)
	}
	target = filepath.Clean(target)

	info, err := os.Stat(target)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", target)
	}
	return target, nil
}
