package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	diff "github.com/hexops/gotextdiff"
	myers "github.com/hexops/gotextdiff/myers"
	"github.com/pkg/errors"
	"github.com/smoldhq/smold/pkg/message"
)

const (
	maxViewLines     = 2000
	maxViewLineWidth = 2000
	maxDiffChars     = 50000
)

var errNotInAllowedDirectory = errors.New("file access denied: path is not within allowed directories")

// FileSystemConfig controls where the filesystem tools may operate and which
// files they must never read.
type FileSystemConfig struct {
	AllowedDirectories []string
	BlacklistedFiles   []string
}

// DefaultFileSystemConfig blacklists common secret carriers. The working
// directory is always appended to the allowed list by the constructor.
func DefaultFileSystemConfig() FileSystemConfig {
	return FileSystemConfig{
		BlacklistedFiles: []string{".env", ".env.*", "*.pem", "*.key", "id_rsa", "id_ed25519", "credentials.json"},
	}
}

// FileSystemToolManager provides the View, Write, Edit, and LS tools with
// directory allow-listing, a secret-file blacklist, and read-before-write
// tracking so the model cannot overwrite a file it has not seen.
type FileSystemToolManager struct {
	registry

	allowedDirectories []string
	blacklistedFiles   []string
	workingDir         string

	fileReadTimestamps map[string]time.Time
	mu                 sync.RWMutex
}

// NewFileSystemToolManager creates a filesystem tool manager rooted at workingDir.
func NewFileSystemToolManager(config FileSystemConfig, workingDir string) *FileSystemToolManager {
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		absWorkingDir = workingDir
	}

	m := &FileSystemToolManager{
		registry:           newRegistry(),
		allowedDirectories: ensureWorkingDirectoryAllowed(config.AllowedDirectories, absWorkingDir),
		blacklistedFiles:   config.BlacklistedFiles,
		workingDir:         absWorkingDir,
		fileReadTimestamps: make(map[string]time.Time),
	}
	m.registerFileSystemTools()
	return m
}

// ensureWorkingDirectoryAllowed returns a copy of the configured allow list
// with the working directory appended if it is not already present.
func ensureWorkingDirectoryAllowed(configured []string, absWorkingDir string) []string {
	allowed := make([]string, len(configured))
	copy(allowed, configured)

	for _, dir := range allowed {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if absDir == absWorkingDir {
			return allowed
		}
	}
	return append(allowed, absWorkingDir)
}

// SetWorkingDir moves the manager to a new working directory. The new
// directory becomes part of the allowed list so relative paths keep working
// after a cd.
func (m *FileSystemToolManager) SetWorkingDir(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve directory %s", dir)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return errors.Wrapf(err, "cannot access directory %s", absDir)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", absDir)
	}

	m.workingDir = absDir
	m.allowedDirectories = ensureWorkingDirectoryAllowed(m.allowedDirectories, absDir)
	return nil
}

// WorkingDir returns the directory relative paths resolve against.
func (m *FileSystemToolManager) WorkingDir() string {
	return m.workingDir
}

func (m *FileSystemToolManager) registerFileSystemTools() {
	m.RegisterTool("View", "Read a file from the local filesystem. Returns up to 2000 lines with line numbers prepended; lines longer than 2000 characters are truncated. Use offset and limit only for very large files.",
		[]message.ToolArgument{
			{Name: "file_path", Description: "Path to the file to read", Required: true, Type: "string"},
			{Name: "offset", Description: "The line number to start reading from (1-indexed)", Required: false, Type: "number"},
			{Name: "limit", Description: "The maximum number of lines to read", Required: false, Type: "number"},
		},
		m.handleView)

	m.RegisterTool("Write", "Write content to a file, creating or fully replacing it. View the file first when it already exists; the parent directory is created if missing.",
		[]message.ToolArgument{
			{Name: "file_path", Description: "Path to the file to write", Required: true, Type: "string"},
			{Name: "content", Description: "Full content to write to the file", Required: true, Type: "string"},
		},
		m.handleWrite)

	m.RegisterTool("Edit", "Edit a file by replacing an exact text snippet. old_string must match the file content exactly, without View line numbers. Set replace_all to replace every occurrence.",
		[]message.ToolArgument{
			{Name: "file_path", Description: "Path to the file to edit", Required: true, Type: "string"},
			{Name: "old_string", Description: "Exact text to replace (must match exactly once unless replace_all is true)", Required: true, Type: "string"},
			{Name: "new_string", Description: "Replacement text", Required: true, Type: "string"},
			{Name: "replace_all", Description: "Replace all occurrences of old_string (default: false)", Required: false, Type: "boolean"},
		},
		m.handleEdit)

	m.RegisterTool("LS", "List the immediate contents of a directory. Directories are shown before files. Hidden entries are skipped.",
		[]message.ToolArgument{
			{Name: "path", Description: "Path to the directory to list (defaults to the working directory)", Required: false, Type: "string"},
		},
		m.handleLS)
}

// resolvePath resolves a path against the working directory and normalizes it.
func (m *FileSystemToolManager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(m.workingDir, path))
}

// isPathAllowed checks that an absolute path falls under an allowed directory.
func (m *FileSystemToolManager) isPathAllowed(absPath string) error {
	for _, allowedDir := range m.allowedDirectories {
		allowedAbs, err := filepath.Abs(allowedDir)
		if err != nil {
			continue
		}
		if absPath == allowedAbs || strings.HasPrefix(absPath, allowedAbs+string(os.PathSeparator)) {
			return nil
		}
	}
	return errNotInAllowedDirectory
}

func (m *FileSystemToolManager) isFileBlacklisted(absPath string) error {
	fileName := filepath.Base(absPath)
	for _, blacklisted := range m.blacklistedFiles {
		if matched, _ := filepath.Match(blacklisted, fileName); matched {
			return errors.Errorf("file access denied: %s matches blacklisted pattern %s", fileName, blacklisted)
		}
		if matched, _ := filepath.Match(blacklisted, absPath); matched {
			return errors.Errorf("file access denied: %s matches blacklisted pattern %s", absPath, blacklisted)
		}
		if fileName == blacklisted || absPath == blacklisted {
			return errors.Errorf("file access denied: %s is blacklisted", absPath)
		}
	}
	return nil
}

// validateReadBeforeWrite rejects writes to existing files that were never
// viewed, or that changed on disk after the last view.
func (m *FileSystemToolManager) validateReadBeforeWrite(absPath string) error {
	m.mu.RLock()
	lastRead, wasRead := m.fileReadTimestamps[absPath]
	m.mu.RUnlock()

	if !wasRead {
		return errors.Errorf("file %s was not read before write attempt; View it first", absPath)
	}

	info, err := os.Stat(absPath)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to check file modification time")
	}
	if err == nil && info.ModTime().After(lastRead) {
		return errors.Errorf("file %s was modified after last read; View it again before writing", absPath)
	}
	return nil
}

func (m *FileSystemToolManager) recordFileRead(absPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileReadTimestamps[absPath] = time.Now()
}

func (m *FileSystemToolManager) handleView(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	pathParam, ok := args["file_path"].(string)
	if !ok {
		return message.NewToolResultError("file_path parameter is required"), nil
	}

	absPath := m.resolvePath(pathParam)
	if err := m.isPathAllowed(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.isFileBlacklisted(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}

	offset := 1
	if v, ok := toolArgInt(args, "offset"); ok && v > 1 {
		offset = v
	}
	limit := maxViewLines
	if v, ok := toolArgInt(args, "limit"); ok && v > 0 && v < maxViewLines {
		limit = v
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Record the attempt so a subsequent Write may create the file.
			m.recordFileRead(absPath)
			return message.NewToolResultError(fmt.Sprintf("file does not exist: %s", absPath)), nil
		}
		return message.NewToolResultError(fmt.Sprintf("failed to read file: %v", err)), nil
	}

	m.recordFileRead(absPath)

	lines := strings.Split(string(content), "\n")
	var result strings.Builder
	displayed := 0
	for i, line := range lines {
		lineNumber := i + 1
		if lineNumber < offset {
			continue
		}
		if displayed >= limit {
			result.WriteString(fmt.Sprintf("\n(Result truncated at %d lines - file has %d lines total)\n", limit, len(lines)))
			break
		}
		if len(line) > maxViewLineWidth {
			line = line[:maxViewLineWidth] + "... (line truncated)"
		}
		result.WriteString(fmt.Sprintf("%6d\t%s\n", lineNumber, line))
		displayed++
	}

	return message.NewToolResultText(result.String()), nil
}

func (m *FileSystemToolManager) handleWrite(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	pathParam, ok := args["file_path"].(string)
	if !ok {
		return message.NewToolResultError("file_path parameter is required and must be a string"), nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return message.NewToolResultError("content parameter is required and must be a string"), nil
	}

	absPath := m.resolvePath(pathParam)
	if err := m.isPathAllowed(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.isFileBlacklisted(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}

	var oldContent string
	fileExisted := false
	if existing, err := os.ReadFile(absPath); err == nil {
		fileExisted = true
		oldContent = string(existing)
		if err := m.validateReadBeforeWrite(absPath); err != nil {
			return message.NewToolResultError(err.Error()), nil
		}
	} else if !os.IsNotExist(err) {
		return message.NewToolResultError(fmt.Sprintf("failed to check file status: %v", err)), nil
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to create directory: %v", err)), nil
	}
	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to write file: %v", err)), nil
	}

	// Refresh the read timestamp so sequential edits keep working.
	m.recordFileRead(absPath)

	if !fileExisted {
		return message.NewToolResultText(fmt.Sprintf("File created successfully at: %s", absPath)), nil
	}
	return message.NewToolResultText(fmt.Sprintf("The file %s has been updated.\n%s", absPath, unifiedDiff(absPath, oldContent, content))), nil
}

func (m *FileSystemToolManager) handleEdit(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	filePath, ok := args["file_path"].(string)
	if !ok {
		return message.NewToolResultError("file_path parameter is required"), nil
	}
	oldString, ok := args["old_string"].(string)
	if !ok {
		return message.NewToolResultError("old_string parameter is required"), nil
	}
	newString, ok := args["new_string"].(string)
	if !ok {
		return message.NewToolResultError("new_string parameter is required"), nil
	}
	if oldString == newString {
		return message.NewToolResultError("old_string and new_string cannot be identical"), nil
	}

	replaceAll := false
	if v, exists := args["replace_all"]; exists {
		if b, ok := v.(bool); ok {
			replaceAll = b
		}
	}

	absPath := m.resolvePath(filePath)
	if err := m.isPathAllowed(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.isFileBlacklisted(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}
	if err := m.validateReadBeforeWrite(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to read file %s: %v", absPath, err)), nil
	}
	fileContent := string(content)

	occurrences := strings.Count(fileContent, oldString)
	if occurrences == 0 {
		return message.NewToolResultError(fmt.Sprintf("old_string not found in file %s. Ensure exact whitespace and formatting match, without View line numbers.", absPath)), nil
	}
	if occurrences > 1 && !replaceAll {
		return message.NewToolResultError(fmt.Sprintf("old_string appears %d times in file %s (use replace_all=true to replace all occurrences)", occurrences, absPath)), nil
	}

	var newContent string
	if replaceAll {
		newContent = strings.ReplaceAll(fileContent, oldString, newString)
	} else {
		newContent = strings.Replace(fileContent, oldString, newString, 1)
	}

	if err := os.WriteFile(absPath, []byte(newContent), 0644); err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to write file %s: %v", absPath, err)), nil
	}
	m.recordFileRead(absPath)

	replaced := 1
	if replaceAll {
		replaced = occurrences
	}
	return message.NewToolResultText(fmt.Sprintf("Successfully edited %s (replaced %d occurrence(s)).\n%s",
		absPath, replaced, unifiedDiff(absPath, fileContent, newContent))), nil
}

func (m *FileSystemToolManager) handleLS(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	pathParam, ok := args["path"].(string)
	if !ok || pathParam == "" {
		pathParam = "."
	}

	absPath := m.resolvePath(pathParam)
	if err := m.isPathAllowed(absPath); err != nil {
		return message.NewToolResultError(err.Error()), nil
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("failed to read directory: %v", err)), nil
	}

	var dirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Contents of %s:\n", absPath))
	if len(dirs) == 0 && len(files) == 0 {
		result.WriteString("  (empty directory)\n")
		return message.NewToolResultText(result.String()), nil
	}
	if len(dirs) > 0 {
		result.WriteString(fmt.Sprintf("\nDirectories (%d):\n", len(dirs)))
		for _, name := range dirs {
			result.WriteString(fmt.Sprintf("  %s/\n", name))
		}
	}
	if len(files) > 0 {
		result.WriteString(fmt.Sprintf("\nFiles (%d):\n", len(files)))
		for _, name := range files {
			result.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}

	return message.NewToolResultText(result.String()), nil
}

// unifiedDiff renders a unified diff between two file versions, truncated when
// the change is too large to show in a tool result.
func unifiedDiff(path, oldContent, newContent string) string {
	edits := myers.ComputeEdits("", oldContent, newContent)
	unified := fmt.Sprint(diff.ToUnified("a/"+path, "b/"+path, oldContent, edits))
	if len(unified) > maxDiffChars {
		return unified[:maxDiffChars] + "\n(Diff output truncated due to size)"
	}
	return unified
}

// toolArgInt reads a numeric tool argument. JSON decoding yields float64 but
// some providers hand through int.
func toolArgInt(args message.ToolArgumentValues, name string) (int, bool) {
	v, exists := args[name]
	if !exists {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
