package vfs

import (
	"fmt"
	"strings"
)

// NormalizePath converts a path into the single canonical form used by every
// FS operation: leading slash, duplicate slashes collapsed, no trailing slash
// except for the root itself. Every public method normalizes its arguments
// through here, so "/a//b/" and "a/b" name the same node.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// ValidatePath rejects paths that cannot name a node.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	for _, segment := range splitPath(path) {
		if segment == ".." {
			return fmt.Errorf("path cannot contain parent directory references")
		}
	}

	return nil
}

// parentPath returns the normalized parent of a normalized path.
func parentPath(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// baseName returns the last segment of a normalized path.
func baseName(path string) string {
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}

// childPath joins a normalized directory path with a child name.
func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
