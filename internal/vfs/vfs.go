// Package vfs implements the in-memory virtual file system backing a
// workspace: a single rooted tree of files and directories, mutated in place
// and serializable to a flat path-keyed snapshot.
package vfs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrPathConflict     = errors.New("vfs: path conflict")
	ErrNotFound         = errors.New("vfs: not found")
	ErrInvalidOperation = errors.New("vfs: invalid operation")
	ErrInvalidSnapshot  = errors.New("vfs: invalid snapshot")
)

// node is a file or directory in the tree. The parent pointer is a lookup
// back-reference only; ownership always flows root-down through children.
type node struct {
	name         string
	path         string
	isDir        bool
	content      string
	lastModified time.Time
	parent       *node
	children     map[string]*node
}

func newDirNode(name, path string, parent *node) *node {
	return &node{
		name:     name,
		path:     path,
		isDir:    true,
		parent:   parent,
		children: map[string]*node{},
	}
}

// FS is the virtual file system. All operations are synchronous and
// in-memory; failed operations leave the tree untouched.
type FS struct {
	mu        sync.Mutex
	root      *node
	listeners map[int]func()
	nextID    int
}

// New returns an empty file system containing only the root directory.
func New() *FS {
	return &FS{
		root:      newDirNode("", "/", nil),
		listeners: map[int]func(){},
	}
}

// Subscribe registers a listener invoked synchronously after every successful
// mutation. The returned function removes the listener.
func (fs *FS) Subscribe(listener func()) func() {
	fs.mu.Lock()
	id := fs.nextID
	fs.nextID++
	fs.listeners[id] = listener
	fs.mu.Unlock()

	return func() {
		fs.mu.Lock()
		delete(fs.listeners, id)
		fs.mu.Unlock()
	}
}

// notify fans out to listeners outside the lock so a listener may re-enter
// the FS (the rebuild path reads back through Serialize).
func (fs *FS) notify() {
	fs.mu.Lock()
	listeners := make([]func(), 0, len(fs.listeners))
	for _, l := range fs.listeners {
		listeners = append(listeners, l)
	}
	fs.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// lookup resolves a normalized path to a node, or nil.
func (fs *FS) lookup(path string) *node {
	if path == "/" {
		return fs.root
	}
	current := fs.root
	for _, segment := range splitPath(path) {
		next, ok := current.children[segment]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// ensureDir walks or creates the directory at path, creating missing
// intermediate directories (mkdir -p). A file anywhere on the way is a
// conflict.
func (fs *FS) ensureDir(path string) (*node, error) {
	current := fs.root
	for _, segment := range splitPath(path) {
		next, ok := current.children[segment]
		if !ok {
			next = newDirNode(segment, childPath(current.path, segment), current)
			current.children[segment] = next
		} else if !next.isDir {
			return nil, fmt.Errorf("%w: %s is a file", ErrPathConflict, next.path)
		}
		current = next
	}
	return current, nil
}

// CreateFile creates or overwrites the file at path, creating missing
// ancestor directories. A directory at path is a conflict.
func (fs *FS) CreateFile(path, content string) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	path = NormalizePath(path)
	if path == "/" {
		return fmt.Errorf("%w: cannot create a file at the root", ErrPathConflict)
	}

	fs.mu.Lock()
	parent, err := fs.ensureDir(parentPath(path))
	if err != nil {
		fs.mu.Unlock()
		return err
	}

	name := baseName(path)
	if existing, ok := parent.children[name]; ok && existing.isDir {
		fs.mu.Unlock()
		return fmt.Errorf("%w: %s is a directory", ErrPathConflict, path)
	}

	parent.children[name] = &node{
		name:         name,
		path:         path,
		content:      content,
		lastModified: time.Now(),
		parent:       parent,
	}
	fs.mu.Unlock()

	fs.notify()
	return nil
}

// CreateDirectory creates the directory at path and any missing ancestors.
// An existing directory is a no-op; a file at path is a conflict.
func (fs *FS) CreateDirectory(path string) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	path = NormalizePath(path)

	fs.mu.Lock()
	if existing := fs.lookup(path); existing != nil {
		fs.mu.Unlock()
		if existing.isDir {
			return nil
		}
		return fmt.Errorf("%w: %s is a file", ErrPathConflict, path)
	}
	if _, err := fs.ensureDir(path); err != nil {
		fs.mu.Unlock()
		return err
	}
	fs.mu.Unlock()

	fs.notify()
	return nil
}

// ReadFile returns the content of the file at path.
func (fs *FS) ReadFile(path string) (string, error) {
	path = NormalizePath(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := fs.lookup(path)
	if n == nil || n.isDir {
		return "", fmt.Errorf("%w: no file at %s", ErrNotFound, path)
	}
	return n.content, nil
}

// UpdateFile replaces the content of an existing file. It never creates.
func (fs *FS) UpdateFile(path, content string) error {
	path = NormalizePath(path)

	fs.mu.Lock()
	n := fs.lookup(path)
	if n == nil || n.isDir {
		fs.mu.Unlock()
		return fmt.Errorf("%w: no file at %s", ErrNotFound, path)
	}
	n.content = content
	n.lastModified = time.Now()
	fs.mu.Unlock()

	fs.notify()
	return nil
}

// Delete removes the node at path. Directories are removed with their entire
// subtree. The root cannot be deleted.
func (fs *FS) Delete(path string) error {
	path = NormalizePath(path)
	if path == "/" {
		return fmt.Errorf("%w: cannot delete the root directory", ErrInvalidOperation)
	}

	fs.mu.Lock()
	n := fs.lookup(path)
	if n == nil {
		fs.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(n.parent.children, n.name)
	n.parent = nil
	fs.mu.Unlock()

	fs.notify()
	return nil
}

// Rename moves the node at oldPath (and its subtree) to newPath, rewriting
// every descendant path. The destination must not exist; missing destination
// ancestors are created.
func (fs *FS) Rename(oldPath, newPath string) error {
	if err := ValidatePath(newPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	oldPath = NormalizePath(oldPath)
	newPath = NormalizePath(newPath)
	if oldPath == "/" || newPath == "/" {
		return fmt.Errorf("%w: cannot rename the root directory", ErrInvalidOperation)
	}
	if oldPath == newPath {
		return nil
	}
	if strings.HasPrefix(newPath, oldPath+"/") {
		return fmt.Errorf("%w: cannot move %s inside itself", ErrInvalidOperation, oldPath)
	}

	fs.mu.Lock()
	n := fs.lookup(oldPath)
	if n == nil {
		fs.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, oldPath)
	}
	if fs.lookup(newPath) != nil {
		fs.mu.Unlock()
		return fmt.Errorf("%w: %s already exists", ErrPathConflict, newPath)
	}

	parent, err := fs.ensureDir(parentPath(newPath))
	if err != nil {
		fs.mu.Unlock()
		return err
	}

	delete(n.parent.children, n.name)
	n.parent = parent
	n.name = baseName(newPath)
	parent.children[n.name] = n
	rewritePaths(n, newPath)
	fs.mu.Unlock()

	fs.notify()
	return nil
}

func rewritePaths(n *node, path string) {
	n.path = path
	for name, child := range n.children {
		rewritePaths(child, childPath(path, name))
	}
}

// ListDirectory returns the sorted names of the directory's immediate
// children.
func (fs *FS) ListDirectory(path string) ([]string, error) {
	path = NormalizePath(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := fs.lookup(path)
	if n == nil || !n.isDir {
		return nil, fmt.Errorf("%w: no directory at %s", ErrNotFound, path)
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether any node lives at path.
func (fs *FS) Exists(path string) bool {
	path = NormalizePath(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lookup(path) != nil
}

// Stat returns metadata for the node at path.
func (fs *FS) Stat(path string) (Info, error) {
	path = NormalizePath(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := fs.lookup(path)
	if n == nil {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return Info{
		Path:         n.path,
		Name:         n.name,
		IsDir:        n.isDir,
		Size:         len(n.content),
		LastModified: n.lastModified,
	}, nil
}

// Info describes a single node.
type Info struct {
	Path         string
	Name         string
	IsDir        bool
	Size         int
	LastModified time.Time
}
