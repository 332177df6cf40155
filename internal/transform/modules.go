package transform

import (
	"fmt"
	"strings"
	"sync"
)

// Module is one source file compiled into executable form, addressable by
// the preview layer for the lifetime of a single generation.
type Module struct {
	Path    string
	ID      string
	Code    string
	Imports []string
}

// ModuleSet holds every module of one pipeline run. A set is discarded as a
// whole: Release empties it and any later lookup misses, which is how stale
// generations are revoked.
type ModuleSet struct {
	Generation uint64

	mu       sync.RWMutex
	byPath   map[string]*Module
	byID     map[string]*Module
	released bool
}

func NewModuleSet(generation uint64) *ModuleSet {
	return &ModuleSet{
		Generation: generation,
		byPath:     map[string]*Module{},
		byID:       map[string]*Module{},
	}
}

// moduleID derives a flat handle name from a source path, the same way
// entry names are derived from component paths.
func moduleID(path string) string {
	id := strings.TrimPrefix(path, "/")
	id = strings.ReplaceAll(id, "/", "-")
	if id == "" {
		return "module"
	}
	return id
}

func (s *ModuleSet) Add(path, code string) *Module {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := moduleID(path)
	for i := 2; ; i++ {
		if _, taken := s.byID[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s.%d", moduleID(path), i)
	}

	mod := &Module{Path: path, ID: id, Code: code}
	s.byPath[path] = mod
	s.byID[id] = mod
	return mod
}

func (s *ModuleSet) Lookup(id string) (*Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, false
	}
	mod, ok := s.byID[id]
	return mod, ok
}

func (s *ModuleSet) ByPath(path string) (*Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.released {
		return nil, false
	}
	mod, ok := s.byPath[path]
	return mod, ok
}

// Paths returns the registered source paths in unspecified order.
func (s *ModuleSet) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.byPath))
	for path := range s.byPath {
		paths = append(paths, path)
	}
	return paths
}

// URL returns the address an execution context fetches the module from.
func (s *ModuleSet) URL(mod *Module) string {
	return fmt.Sprintf("/modules/%d/%s", s.Generation, mod.ID)
}

// Release revokes every handle in the set. Idempotent.
func (s *ModuleSet) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	s.byPath = map[string]*Module{}
	s.byID = map[string]*Module{}
}
