// Package transform compiles a workspace snapshot into one self-contained
// preview document: every script file is transpiled to an ES module, imports
// are resolved through the tree or rewritten to a CDN, styles are aggregated,
// and the result is addressed through a generation-scoped module set.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atelier-studio/atelier/internal/document"
	"github.com/atelier-studio/atelier/internal/vfs"
)

// ErrNoEntryPoint is the whole-run failure when no conventional entry file
// exists at the tree root.
var ErrNoEntryPoint = errors.New("transform: no entry point found")

// FileError is a per-file build failure (transpile or import resolution).
// File errors are aggregated into the error document, never thrown.
type FileError struct {
	Path    string
	Message string
}

// Result is the atomic outcome of one pipeline run. Either Errors is empty
// and Document mounts the entry module, or Document is the error listing.
type Result struct {
	Generation uint64
	Document   string
	Errors     []FileError
	Modules    *ModuleSet
	EntryPath  string
}

// Mounts reports whether the document attempts to mount the application.
func (r *Result) Mounts() bool {
	return len(r.Errors) == 0
}

// Config tunes a Pipeline. Zero values fall back to defaults.
type Config struct {
	Alias     string
	CDNBase   string
	CacheSize int
}

// Pipeline turns snapshots into renderable documents. One Pipeline is reused
// across runs; only its transpile cache carries over between them.
type Pipeline struct {
	alias   string
	cdnBase string
	cache   *transpileCache
}

func NewPipeline(cfg Config) *Pipeline {
	if cfg.Alias == "" {
		cfg.Alias = DefaultAlias
	}
	if cfg.CDNBase == "" {
		cfg.CDNBase = DefaultCDNBase
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	return &Pipeline{
		alias:   cfg.Alias,
		cdnBase: strings.TrimSuffix(cfg.CDNBase, "/"),
		cache:   newTranspileCache(cfg.CacheSize),
	}
}

// Run walks the snapshot and produces one document for the given generation.
// Per-file failures are collected into the result; the only run-level error
// is ErrNoEntryPoint.
func (p *Pipeline) Run(snapshot vfs.Snapshot, generation uint64) (*Result, error) {
	entryPath := FindEntry(snapshot)
	if entryPath == "" {
		return nil, ErrNoEntryPoint
	}

	paths := make([]string, 0, len(snapshot))
	for path := range snapshot {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := &Result{
		Generation: generation,
		Modules:    NewModuleSet(generation),
		EntryPath:  entryPath,
	}

	// Pass one: transpile scripts, aggregate styles. A failed file becomes
	// an error artifact and the walk continues.
	transpiled := map[string]string{}
	var cssParts []string
	for _, path := range paths {
		entry := snapshot[path]
		if entry.Type != vfs.EntryFile {
			continue
		}
		switch {
		case isScriptPath(path):
			code, err := p.transpile(path, entry.Content)
			if err != nil {
				result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
				continue
			}
			transpiled[path] = code
		case isStylePath(path):
			cssParts = append(cssParts, fmt.Sprintf("/* %s */\n%s", path, entry.Content))
		}
	}

	// Pass two: resolve and rewrite imports, register modules, build the
	// import map.
	resolver := newResolver(snapshot, p.alias, p.cdnBase)
	imports := map[string]string{}
	for _, path := range paths {
		code, ok := transpiled[path]
		if !ok {
			continue
		}
		rewritten, moduleImports, errs := resolver.rewriteImports(path, code)
		for _, err := range errs {
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
		}
		mod := result.Modules.Add(path, rewritten)
		mod.Imports = moduleImports
		imports[path] = result.Modules.URL(mod)
		for _, key := range moduleImports {
			if isExternal(key) {
				imports[key] = resolver.externalURL(key)
			}
		}
	}

	// The bootstrap itself needs the runtime even when no source file
	// imports it explicitly.
	for _, name := range []string{"react", "react-dom/client", "react/jsx-runtime"} {
		if _, ok := imports[name]; !ok {
			imports[name] = resolver.externalURL(name)
		}
	}

	if len(result.Errors) > 0 {
		doc, err := document.RenderErrorListing(issuesFrom(result.Errors))
		if err != nil {
			return nil, fmt.Errorf("transform: rendering error listing: %w", err)
		}
		result.Document = doc
		return result, nil
	}

	importMapJSON, err := json.MarshalIndent(map[string]any{"imports": imports}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("transform: encoding import map: %w", err)
	}

	doc, err := document.Render(document.Page{
		ImportMapJSON: string(importMapJSON),
		CSS:           strings.Join(cssParts, "\n\n"),
		EntryKey:      entryPath,
		Generation:    generation,
	})
	if err != nil {
		return nil, fmt.Errorf("transform: rendering document: %w", err)
	}
	result.Document = doc
	return result, nil
}

func issuesFrom(errs []FileError) []document.Issue {
	issues := make([]document.Issue, len(errs))
	for i, fe := range errs {
		issues[i] = document.Issue{Path: fe.Path, Message: fe.Message}
	}
	return issues
}
