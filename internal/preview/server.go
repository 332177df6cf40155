// Package preview hosts the synthesized document and its module handles over
// HTTP, standing in for the isolated execution context: the document is
// loaded by an embedding surface (an iframe or a headless page), reloads on
// every new generation, and reports mount outcomes back over a message
// channel.
package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-studio/atelier/internal/transform"
	"github.com/atelier-studio/atelier/internal/vfs"
)

// Outcome is one report from the running preview: a successful mount or a
// runtime failure caught by the in-document boundary.
type Outcome struct {
	Generation uint64 `json:"generation"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

const (
	OutcomeMounted      = "mounted"
	OutcomeRuntimeError = "runtime-error"
)

// Renderer serves exactly one generation at a time. Swapping in a newer
// generation releases the superseded module set; anything still addressing
// it gets a 404, which is how stale handles are revoked.
type Renderer struct {
	log       *slog.Logger
	reload    *hub
	onOutcome func(Outcome)

	mu         sync.RWMutex
	generation uint64
	doc        string
	modules    *transform.ModuleSet
	snapshot   vfs.Snapshot
}

func NewRenderer(log *slog.Logger, onOutcome func(Outcome)) *Renderer {
	if onOutcome == nil {
		onOutcome = func(Outcome) {}
	}
	return &Renderer{
		log:       log,
		reload:    newHub(),
		onOutcome: onOutcome,
	}
}

// Swap installs a new generation. Out-of-order swaps are discarded: a run
// that finished late must never overwrite a fresher one. The incoming (or
// superseded) module set is released either way.
func (r *Renderer) Swap(generation uint64, doc string, modules *transform.ModuleSet, snapshot vfs.Snapshot) {
	r.mu.Lock()
	if generation <= r.generation {
		r.mu.Unlock()
		if modules != nil {
			modules.Release()
		}
		r.log.Debug("discarding stale render", "generation", generation)
		return
	}

	superseded := r.modules
	r.generation = generation
	r.doc = doc
	r.modules = modules
	r.snapshot = snapshot
	r.mu.Unlock()

	if superseded != nil {
		superseded.Release()
	}
	r.reload.notify(generation)
	r.log.Info("preview swapped", "generation", generation)
}

// Generation returns the currently served generation.
func (r *Renderer) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Close releases the current generation's handles.
func (r *Renderer) Close() {
	r.mu.Lock()
	modules := r.modules
	r.modules = nil
	r.mu.Unlock()

	if modules != nil {
		modules.Release()
	}
}

// Handler returns the preview's HTTP surface.
func (r *Renderer) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/", r.serveDocument)
	router.Get("/modules/{generation}/{id}", r.serveModule)
	router.Get("/events", r.serveEvents)
	router.Get("/bridge", r.serveBridge)
	router.Get("/fs/*", r.serveAsset)
	return router
}

func (r *Renderer) serveDocument(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	doc := r.doc
	r.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if doc == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "<!doctype html><title>Preview</title><p>No build yet.</p>")
		return
	}
	fmt.Fprint(w, doc)
}

func (r *Renderer) serveModule(w http.ResponseWriter, req *http.Request) {
	generation, err := strconv.ParseUint(chi.URLParam(req, "generation"), 10, 64)
	if err != nil {
		http.NotFound(w, req)
		return
	}

	r.mu.RLock()
	current := r.generation
	modules := r.modules
	r.mu.RUnlock()

	if modules == nil || generation != current {
		http.NotFound(w, req)
		return
	}

	mod, ok := modules.Lookup(chi.URLParam(req, "id"))
	if !ok {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, mod.Code)
}

// serveAsset exposes non-module workspace files (images, fonts, plain text)
// to the running preview.
func (r *Renderer) serveAsset(w http.ResponseWriter, req *http.Request) {
	path := vfs.NormalizePath(chi.URLParam(req, "*"))

	r.mu.RLock()
	snapshot := r.snapshot
	r.mu.RUnlock()

	entry, ok := snapshot[path]
	if !ok || entry.Type != vfs.EntryFile {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(path))
	fmt.Fprint(w, entry.Content)
}
