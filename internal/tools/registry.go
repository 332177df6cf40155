// Package tools implements the file-editing commands an AI assistant invokes
// against a live workspace. Every tool goes through the virtual file system's
// public operations, so no tool can bypass its invariants, and every result
// is a human-readable string fed back into the conversation.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/atelier-studio/atelier/internal/vfs"
)

var ErrUnknownTool = errors.New("tools: unknown tool")

// Spec describes one tool for the model's tool list.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry binds the tool set to one workspace. It keeps a single-level undo
// snapshot taken before each mutating call.
type Registry struct {
	fs *vfs.FS

	mu       sync.Mutex
	undo     vfs.Snapshot
	undoNote string
}

func NewRegistry(fs *vfs.FS) *Registry {
	return &Registry{fs: fs}
}

func (r *Registry) Specs() []Spec {
	return []Spec{
		{Name: "create_file", Description: "Create or overwrite a file with the given content."},
		{Name: "replace_in_file", Description: "Replace a literal substring or a line range within a file."},
		{Name: "insert_at_line", Description: "Insert content before the given 1-based line of a file."},
		{Name: "view", Description: "View a file with line numbers, or list a directory."},
		{Name: "undo_edit", Description: "Undo the most recent edit."},
		{Name: "rename", Description: "Move a file or directory to a new path."},
		{Name: "delete", Description: "Delete a file or directory (recursively)."},
	}
}

// Call runs one tool. The returned string is shown to the model verbatim;
// errors are returned for the caller to format.
func (r *Registry) Call(name string, input json.RawMessage) (string, error) {
	switch name {
	case "create_file":
		return r.createFile(input)
	case "replace_in_file":
		return r.replaceInFile(input)
	case "insert_at_line":
		return r.insertAtLine(input)
	case "view":
		return r.view(input)
	case "undo_edit":
		return r.undoEdit()
	case "rename":
		return r.rename(input)
	case "delete":
		return r.delete(input)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}

// commitUndo records the pre-mutation snapshot once the mutation succeeded.
func (r *Registry) commitUndo(snapshot vfs.Snapshot, note string) {
	r.mu.Lock()
	r.undo = snapshot
	r.undoNote = note
	r.mu.Unlock()
}

func decode(input json.RawMessage, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(input)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("tools: bad input: %w", err)
	}
	return nil
}

func (r *Registry) createFile(input json.RawMessage) (string, error) {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}

	before := r.fs.Serialize()
	if err := r.fs.CreateFile(args.Path, args.Content); err != nil {
		return "", err
	}
	r.commitUndo(before, "create "+args.Path)
	return fmt.Sprintf("Created %s (%d bytes)", vfs.NormalizePath(args.Path), len(args.Content)), nil
}

func (r *Registry) replaceInFile(input json.RawMessage) (string, error) {
	var args struct {
		Path      string `json:"path"`
		OldText   string `json:"old_text,omitempty"`
		NewText   string `json:"new_text"`
		StartLine int    `json:"start_line,omitempty"`
		EndLine   int    `json:"end_line,omitempty"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}

	content, err := r.fs.ReadFile(args.Path)
	if err != nil {
		return "", err
	}

	var updated string
	switch {
	case args.OldText != "":
		count := strings.Count(content, args.OldText)
		if count == 0 {
			return "", fmt.Errorf("tools: %q not found in %s", truncate(args.OldText, 60), args.Path)
		}
		if count > 1 {
			return "", fmt.Errorf("tools: %q appears %d times in %s; provide a unique match", truncate(args.OldText, 60), count, args.Path)
		}
		updated = strings.Replace(content, args.OldText, args.NewText, 1)
	case args.StartLine > 0:
		lines := strings.Split(content, "\n")
		end := args.EndLine
		if end == 0 {
			end = args.StartLine
		}
		if args.StartLine > len(lines) || end < args.StartLine {
			return "", fmt.Errorf("tools: line range %d-%d out of bounds (file has %d lines)", args.StartLine, end, len(lines))
		}
		if end > len(lines) {
			end = len(lines)
		}
		replacement := []string{}
		if args.NewText != "" {
			replacement = strings.Split(args.NewText, "\n")
		}
		merged := append(append(append([]string{}, lines[:args.StartLine-1]...), replacement...), lines[end:]...)
		updated = strings.Join(merged, "\n")
	default:
		return "", fmt.Errorf("tools: replace_in_file needs old_text or start_line")
	}

	before := r.fs.Serialize()
	if err := r.fs.UpdateFile(args.Path, updated); err != nil {
		return "", err
	}
	r.commitUndo(before, "replace in "+args.Path)
	return fmt.Sprintf("Updated %s", vfs.NormalizePath(args.Path)), nil
}

func (r *Registry) insertAtLine(input json.RawMessage) (string, error) {
	var args struct {
		Path    string `json:"path"`
		Line    int    `json:"line"`
		Content string `json:"content"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}

	content, err := r.fs.ReadFile(args.Path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")
	if args.Line < 1 || args.Line > len(lines)+1 {
		return "", fmt.Errorf("tools: line %d out of bounds (file has %d lines)", args.Line, len(lines))
	}

	inserted := strings.Split(args.Content, "\n")
	merged := append(append(append([]string{}, lines[:args.Line-1]...), inserted...), lines[args.Line-1:]...)

	before := r.fs.Serialize()
	if err := r.fs.UpdateFile(args.Path, strings.Join(merged, "\n")); err != nil {
		return "", err
	}
	r.commitUndo(before, "insert into "+args.Path)
	return fmt.Sprintf("Inserted %d line(s) into %s at line %d", len(inserted), vfs.NormalizePath(args.Path), args.Line), nil
}

func (r *Registry) view(input json.RawMessage) (string, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}
	if args.Path == "" {
		args.Path = "/"
	}

	if names, err := r.fs.ListDirectory(args.Path); err == nil {
		var b strings.Builder
		fmt.Fprintf(&b, "%s:\n", vfs.NormalizePath(args.Path))
		for _, name := range names {
			child := vfs.NormalizePath(args.Path + "/" + name)
			if info, err := r.fs.Stat(child); err == nil && info.IsDir {
				fmt.Fprintf(&b, "  %s/\n", name)
			} else {
				fmt.Fprintf(&b, "  %s\n", name)
			}
		}
		if len(names) == 0 {
			b.WriteString("  (empty)\n")
		}
		return b.String(), nil
	}

	content, err := r.fs.ReadFile(args.Path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&b, "%4d | %s\n", i+1, line)
	}
	return b.String(), nil
}

func (r *Registry) undoEdit() (string, error) {
	r.mu.Lock()
	snapshot := r.undo
	note := r.undoNote
	r.undo = nil
	r.undoNote = ""
	r.mu.Unlock()

	if snapshot == nil {
		return "", fmt.Errorf("tools: nothing to undo")
	}
	if err := r.fs.Deserialize(snapshot); err != nil {
		return "", err
	}
	return fmt.Sprintf("Undid last edit (%s)", note), nil
}

func (r *Registry) rename(input json.RawMessage) (string, error) {
	var args struct {
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}

	before := r.fs.Serialize()
	if err := r.fs.Rename(args.OldPath, args.NewPath); err != nil {
		return "", err
	}
	r.commitUndo(before, "rename "+args.OldPath)
	return fmt.Sprintf("Renamed %s to %s", vfs.NormalizePath(args.OldPath), vfs.NormalizePath(args.NewPath)), nil
}

func (r *Registry) delete(input json.RawMessage) (string, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}

	before := r.fs.Serialize()
	if err := r.fs.Delete(args.Path); err != nil {
		return "", err
	}
	r.commitUndo(before, "delete "+args.Path)
	return fmt.Sprintf("Deleted %s", vfs.NormalizePath(args.Path)), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// SortedSpecNames is a convenience for logging the registered tool names.
func (r *Registry) SortedSpecNames() []string {
	specs := r.Specs()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	sort.Strings(names)
	return names
}
