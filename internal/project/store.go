// Package project is the persistence boundary for workspace snapshots. The
// file system itself never holds a reference to a store; callers serialize at
// save points and hand the snapshot over.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/atelier-studio/atelier/internal/vfs"
)

var ErrProjectNotFound = errors.New("project: not found")

// Store persists named snapshots.
type Store interface {
	Load(name string) (vfs.Snapshot, error)
	Save(name string, snapshot vfs.Snapshot) error
	List() ([]string, error)
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// FileStore keeps one JSON document per project under a root directory.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("project: creating store root: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(name string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", fmt.Errorf("project: invalid name %q", name)
	}
	return filepath.Join(s.root, name+".json"), nil
}

func (s *FileStore) Load(name string) (vfs.Snapshot, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("project: reading %s: %w", name, err)
	}

	var snapshot vfs.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("project: parsing %s: %w", name, err)
	}
	return snapshot, nil
}

// Save writes atomically: temp file then rename, so a crash mid-write never
// truncates a project.
func (s *FileStore) Save(name string, snapshot vfs.Snapshot) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.root, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("project: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("project: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("project: %w", err)
	}
	return nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
