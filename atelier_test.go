package atelier

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atelier-studio/atelier/internal/vfs"
)

func newTestWorkspace(t *testing.T, snapshot vfs.Snapshot) *Workspace {
	t.Helper()
	w, err := New(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSnapshot(snapshot),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func fetchDocument(t *testing.T, w *Workspace) (int, string) {
	t.Helper()
	server := httptest.NewServer(w.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestWorkspaceServesPreviewAfterHydration(t *testing.T) {
	w := newTestWorkspace(t, vfs.Snapshot{
		"/App.tsx": {Type: vfs.EntryFile, Content: "export default function App() { return <h1>Hi</h1> }"},
	})

	status, body := fetchDocument(t, w)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, `<div id="root">`) {
		t.Error("document does not mount")
	}
	if !strings.Contains(body, "importmap") {
		t.Error("document missing import map")
	}
}

func TestWorkspaceRebuildsOnEdit(t *testing.T) {
	w := newTestWorkspace(t, vfs.Snapshot{
		"/App.tsx": {Type: vfs.EntryFile, Content: "export default () => <p>one</p>"},
	})

	before := w.Generation()
	if err := w.FS().UpdateFile("/App.tsx", "export default () => <p>two</p>"); err != nil {
		t.Fatal(err)
	}
	if w.Generation() != before+1 {
		t.Errorf("generation = %d, want %d", w.Generation(), before+1)
	}
}

func TestWorkspaceShowsErrorListingForBrokenFile(t *testing.T) {
	w := newTestWorkspace(t, vfs.Snapshot{
		"/App.tsx": {Type: vfs.EntryFile, Content: "export default () => <p>ok</p>"},
	})

	if err := w.FS().CreateFile("/Broken.jsx", "const x = <div>"); err != nil {
		t.Fatal(err)
	}

	_, body := fetchDocument(t, w)
	if !strings.Contains(body, "Build failed") || !strings.Contains(body, "/Broken.jsx") {
		t.Error("error listing not served")
	}

	// Fixing the file brings the preview back.
	if err := w.FS().Delete("/Broken.jsx"); err != nil {
		t.Fatal(err)
	}
	_, body = fetchDocument(t, w)
	if !strings.Contains(body, `<div id="root">`) {
		t.Error("preview did not recover after fix")
	}
}

func TestWorkspaceWithoutEntryPoint(t *testing.T) {
	w := newTestWorkspace(t, nil)

	_, body := fetchDocument(t, w)
	if !strings.Contains(body, "no entry point") {
		t.Error("missing-entry message not served")
	}
	if strings.Contains(body, `<div id="root">`) {
		t.Error("no-entry document must not mount")
	}
}

func TestWorkspaceToolEditsFlowThroughToPreview(t *testing.T) {
	w := newTestWorkspace(t, vfs.Snapshot{
		"/App.tsx": {Type: vfs.EntryFile, Content: "export default () => <p>old</p>"},
	})

	_, err := w.Tools().Call("create_file", []byte(`{"path":"/styles.css","content":".marker { color: red }"}`))
	if err != nil {
		t.Fatal(err)
	}

	_, body := fetchDocument(t, w)
	if !strings.Contains(body, ".marker") {
		t.Error("tool edit not reflected in preview document")
	}
}
