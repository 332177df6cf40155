// Package atelier wires an in-memory workspace to a live preview: edits to
// the virtual file system trigger a transform pass whose output document is
// served, hot-reloaded and observed through the preview renderer.
package atelier

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/atelier-studio/atelier/internal/document"
	"github.com/atelier-studio/atelier/internal/preview"
	"github.com/atelier-studio/atelier/internal/tools"
	"github.com/atelier-studio/atelier/internal/transform"
	"github.com/atelier-studio/atelier/internal/vfs"
)

// Outcome re-exports the preview report type for embedders.
type Outcome = preview.Outcome

type config struct {
	log       *slog.Logger
	pipeline  transform.Config
	snapshot  vfs.Snapshot
	onOutcome func(Outcome)
}

type Option func(*config)

// WithLogger sets the workspace logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithPipelineConfig overrides alias, CDN base and cache size.
func WithPipelineConfig(cfg transform.Config) Option {
	return func(c *config) { c.pipeline = cfg }
}

// WithSnapshot hydrates the workspace from a persisted snapshot.
func WithSnapshot(snapshot vfs.Snapshot) Option {
	return func(c *config) { c.snapshot = snapshot }
}

// WithOutcomeHandler receives mount and runtime-error reports from the
// preview surface.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(c *config) { c.onOutcome = fn }
}

// Workspace owns one editing session: the file tree, the pipeline compiling
// it and the renderer serving the result. Every successful mutation rebuilds
// synchronously; the renderer's generation counter discards anything stale.
type Workspace struct {
	log      *slog.Logger
	fs       *vfs.FS
	pipeline *transform.Pipeline
	renderer *preview.Renderer
	registry *tools.Registry

	generation  atomic.Uint64
	unsubscribe func()
}

func New(opts ...Option) (*Workspace, error) {
	cfg := config{log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Workspace{
		log:      cfg.log,
		fs:       vfs.New(),
		pipeline: transform.NewPipeline(cfg.pipeline),
	}
	w.renderer = preview.NewRenderer(cfg.log, cfg.onOutcome)
	w.registry = tools.NewRegistry(w.fs)

	if cfg.snapshot != nil {
		if err := w.fs.Deserialize(cfg.snapshot); err != nil {
			return nil, fmt.Errorf("atelier: hydrating workspace: %w", err)
		}
	}

	w.unsubscribe = w.fs.Subscribe(w.rebuild)
	w.rebuild()
	return w, nil
}

// rebuild runs one transform pass over the current tree and swaps the result
// into the renderer. It is invoked synchronously from every FS mutation.
func (w *Workspace) rebuild() {
	snapshot := w.fs.Serialize()
	generation := w.generation.Add(1)

	result, err := w.pipeline.Run(snapshot, generation)
	if err != nil {
		doc, rerr := document.RenderErrorListing([]document.Issue{{
			Path:    "/",
			Message: fmt.Sprintf("%v; expected one of %s", err, strings.Join(transform.EntryCandidates(), ", ")),
		}})
		if rerr != nil {
			w.log.Error("rendering error listing", "err", rerr)
			return
		}
		w.renderer.Swap(generation, doc, nil, snapshot)
		return
	}

	w.renderer.Swap(generation, result.Document, result.Modules, snapshot)
	if !result.Mounts() {
		w.log.Warn("build failed", "generation", generation, "errors", len(result.Errors))
	}
}

// FS exposes the live file system (the editing tool handlers and any
// embedding UI mutate through it).
func (w *Workspace) FS() *vfs.FS {
	return w.fs
}

// Tools returns the editing tool registry bound to this workspace.
func (w *Workspace) Tools() *tools.Registry {
	return w.registry
}

// Handler serves the preview surface.
func (w *Workspace) Handler() http.Handler {
	return w.renderer.Handler()
}

// Generation returns the latest render generation.
func (w *Workspace) Generation() uint64 {
	return w.generation.Load()
}

// Close detaches from the file system and releases the current generation.
func (w *Workspace) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.renderer.Close()
}
