package vfs

import (
	"fmt"
	"sort"
	"strings"
)

// EntryType discriminates snapshot entries.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one node in the wire format.
type Entry struct {
	Type    EntryType `json:"type"`
	Content string    `json:"content,omitempty"`
}

// Snapshot is the flat wire format: normalized absolute path to entry. The
// root directory is implicit and never serialized.
type Snapshot map[string]Entry

// Serialize flattens the tree into a snapshot containing every file and
// every directory, empty ones included.
func (fs *FS) Serialize() Snapshot {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	snapshot := Snapshot{}
	var walk func(n *node)
	walk = func(n *node) {
		for _, child := range n.children {
			if child.isDir {
				snapshot[child.path] = Entry{Type: EntryDirectory}
				walk(child)
			} else {
				snapshot[child.path] = Entry{Type: EntryFile, Content: child.content}
			}
		}
	}
	walk(fs.root)
	return snapshot
}

// Deserialize replaces the entire tree with the snapshot's contents. The
// replace is atomic: a malformed snapshot rejects without mutating the
// existing tree.
func (fs *FS) Deserialize(snapshot Snapshot) error {
	root, err := buildTree(snapshot)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	fs.root = root
	fs.mu.Unlock()

	fs.notify()
	return nil
}

// buildTree constructs a fresh tree from a snapshot: directories first in
// ancestor-before-descendant order, then files.
func buildTree(snapshot Snapshot) (*node, error) {
	staging := &FS{root: newDirNode("", "/", nil)}

	paths := make([]string, 0, len(snapshot))
	for path := range snapshot {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.Count(paths[i], "/") < strings.Count(paths[j], "/")
	})

	for _, rawPath := range paths {
		entry := snapshot[rawPath]
		if err := ValidatePath(rawPath); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSnapshot, rawPath, err)
		}
		path := NormalizePath(rawPath)

		switch entry.Type {
		case EntryDirectory:
			if path == "/" {
				continue
			}
			if err := staging.CreateDirectory(path); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSnapshot, rawPath, err)
			}
		case EntryFile:
			if path == "/" {
				return nil, fmt.Errorf("%w: root cannot be a file", ErrInvalidSnapshot)
			}
			if staging.lookup(path) != nil {
				return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalidSnapshot, rawPath)
			}
			if err := staging.CreateFile(path, entry.Content); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSnapshot, rawPath, err)
			}
		default:
			return nil, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidSnapshot, rawPath, entry.Type)
		}
	}

	return staging.root, nil
}
