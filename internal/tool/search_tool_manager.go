package tool

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/smoldhq/smold/pkg/message"
)

const (
	maxSearchResults = 100
	maxScannedFiles  = 1000
)

var binaryExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".zip": true, ".tar": true, ".gz": true, ".rar": true,
	".7z": true, ".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
}

// SearchToolManager provides the Glob and Grep tools for locating files by
// name pattern or content.
type SearchToolManager struct {
	registry

	workingDir string
}

// NewSearchToolManager creates a search tool manager rooted at workingDir.
func NewSearchToolManager(workingDir string) *SearchToolManager {
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		absWorkingDir = workingDir
	}

	m := &SearchToolManager{
		registry:   newRegistry(),
		workingDir: absWorkingDir,
	}
	m.registerSearchTools()
	return m
}

// SetWorkingDir moves the default search root.
func (m *SearchToolManager) SetWorkingDir(dir string) {
	if absDir, err := filepath.Abs(dir); err == nil {
		m.workingDir = absDir
	}
}

func (m *SearchToolManager) registerSearchTools() {
	m.RegisterTool("Glob", "Find files by glob pattern, e.g. \"**/*.go\" or \"src/**/*.ts\". Returns matching paths sorted by most recent modification time.",
		[]message.ToolArgument{
			{Name: "pattern", Description: "The glob pattern to match files against", Required: true, Type: "string"},
			{Name: "path", Description: "The directory to search in (defaults to the working directory)", Required: false, Type: "string"},
		},
		m.handleGlob)

	m.RegisterTool("Grep", "Search file contents with a regular expression, e.g. \"log.*Error\" or \"func\\s+\\w+\". Narrow the scan with include globs such as \"*.go\" or \"*.{ts,tsx}\". Returns matching file paths sorted by most recent modification time.",
		[]message.ToolArgument{
			{Name: "pattern", Description: "The regular expression pattern to search for in file contents", Required: true, Type: "string"},
			{Name: "include", Description: "File pattern to include in the search (e.g. \"*.go\", \"*.{ts,tsx}\")", Required: false, Type: "string"},
			{Name: "path", Description: "The directory to search in (defaults to the working directory)", Required: false, Type: "string"},
		},
		m.handleGrep)
}

func (m *SearchToolManager) searchRoot(args message.ToolArgumentValues) string {
	if pathParam, ok := args["path"].(string); ok && pathParam != "" {
		if filepath.IsAbs(pathParam) {
			return filepath.Clean(pathParam)
		}
		return filepath.Clean(filepath.Join(m.workingDir, pathParam))
	}
	return m.workingDir
}

func (m *SearchToolManager) handleGlob(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	pattern, ok := args["pattern"].(string)
	if !ok || pattern == "" {
		return message.NewToolResultError("pattern parameter is required"), nil
	}

	root := m.searchRoot(args)
	matches, err := findMatchingFiles(ctx, root, pattern)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("glob search failed: %v", err)), nil
	}

	// A bare filename with no wildcards is almost always meant recursively.
	if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[/") {
		matches, err = findMatchingFiles(ctx, root, "**/"+pattern)
		if err != nil {
			return message.NewToolResultError(fmt.Sprintf("glob search failed: %v", err)), nil
		}
	}

	return message.NewToolResultText(formatSearchResults(matches)), nil
}

func (m *SearchToolManager) handleGrep(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	pattern, ok := args["pattern"].(string)
	if !ok || pattern == "" {
		return message.NewToolResultError("pattern parameter is required"), nil
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("invalid regular expression pattern: %v", err)), nil
	}

	include, _ := args["include"].(string)
	root := m.searchRoot(args)

	var matches []string
	scanned := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if scanned >= maxScannedFiles {
			return filepath.SkipAll
		}
		if include != "" && !matchesInclude(d.Name(), include) {
			return nil
		}
		scanned++
		if fileContainsPattern(path, regex) {
			matches = append(matches, path)
		}
		return nil
	})
	if walkErr != nil {
		return message.NewToolResultError(fmt.Sprintf("content search failed: %v", walkErr)), nil
	}

	sortByModTime(matches)
	return message.NewToolResultText(formatSearchResults(matches)), nil
}

// findMatchingFiles walks root and collects files whose relative path matches
// the glob pattern, newest first.
func findMatchingFiles(ctx context.Context, root, pattern string) ([]string, error) {
	patterns := expandBraces(pattern)

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		for _, p := range patterns {
			if matchGlob(relPath, p) {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByModTime(matches)
	return matches, nil
}

// expandBraces turns "*.{go,mod}" into ["*.go", "*.mod"]. Only a single brace
// group is supported, which covers the patterns models actually send.
func expandBraces(pattern string) []string {
	open := strings.Index(pattern, "{")
	if open < 0 {
		return []string{pattern}
	}
	end := strings.Index(pattern[open:], "}")
	if end < 0 {
		return []string{pattern}
	}
	end += open

	prefix, suffix := pattern[:open], pattern[end+1:]
	options := strings.Split(pattern[open+1:end], ",")
	expanded := make([]string, 0, len(options))
	for _, opt := range options {
		expanded = append(expanded, prefix+opt+suffix)
	}
	return expanded
}

// matchGlob matches a slash-separated relative path against a glob pattern
// with "**" support.
func matchGlob(relPath, pattern string) bool {
	// A pattern without a separator matches against the basename anywhere.
	if !strings.Contains(pattern, "/") {
		matched, _ := filepath.Match(pattern, pathBase(relPath))
		return matched
	}

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		// "**/" may consume any number of leading segments, including none.
		segments := strings.Split(relPath, "/")
		for i := range segments {
			if matchGlob(strings.Join(segments[i:], "/"), rest) {
				return true
			}
		}
		return false
	}

	if before, after, found := strings.Cut(pattern, "/**/"); found {
		segments := strings.Split(relPath, "/")
		for i := 1; i < len(segments); i++ {
			head := strings.Join(segments[:i], "/")
			if matched, _ := filepath.Match(before, head); matched {
				if matchGlob(strings.Join(segments[i:], "/"), "**/"+after) {
					return true
				}
			}
		}
		return false
	}

	matched, _ := filepath.Match(pattern, relPath)
	return matched
}

func pathBase(relPath string) string {
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		return relPath[i+1:]
	}
	return relPath
}

// matchesInclude matches a filename against an include pattern, with brace
// expansion and "**/" prefixes reduced to their basename part.
func matchesInclude(fileName, include string) bool {
	for _, p := range expandBraces(include) {
		if i := strings.LastIndex(p, "/"); i >= 0 {
			p = p[i+1:]
		}
		if matched, _ := filepath.Match(p, fileName); matched {
			return true
		}
	}
	return false
}

func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	return name == "node_modules" || name == "vendor" || name == "__pycache__"
}

// fileContainsPattern reports whether a file matches the regex. Binary files
// and unreadable files are silently skipped.
func fileContainsPattern(path string, regex *regexp.Regexp) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	probe := content
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	if bytes.ContainsRune(probe, 0) {
		return false
	}
	return regex.Match(content)
}

func sortByModTime(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		infoI, errI := os.Stat(paths[i])
		infoJ, errJ := os.Stat(paths[j])
		if errI != nil || errJ != nil {
			return paths[i] < paths[j]
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})
}

func formatSearchResults(matches []string) string {
	if len(matches) == 0 {
		return "No files found"
	}

	truncated := len(matches) > maxSearchResults
	total := len(matches)
	if truncated {
		matches = matches[:maxSearchResults]
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d file(s)\n", total))
	result.WriteString(strings.Join(matches, "\n"))
	if truncated {
		result.WriteString("\n(Results are truncated. Consider using a more specific path or pattern.)")
	}
	return result.String()
}
