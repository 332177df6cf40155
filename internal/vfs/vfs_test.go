package vfs

import (
	"errors"
	"testing"
)

func TestCreateAndReadFile(t *testing.T) {
	fs := New()

	if err := fs.CreateFile("/a/b.js", "hello"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	content, err := fs.ReadFile("/a/b.js")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if content != "hello" {
		t.Errorf("content = %q, want %q", content, "hello")
	}

	if !fs.Exists("/a") {
		t.Error("intermediate directory /a was not created")
	}
}

func TestPathAliasesResolveToSameNode(t *testing.T) {
	fs := New()

	if err := fs.CreateFile("//a//b.js", "x"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	content, err := fs.ReadFile("/a/b.js")
	if err != nil {
		t.Fatalf("ReadFile via canonical form failed: %v", err)
	}
	if content != "x" {
		t.Errorf("content = %q, want %q", content, "x")
	}

	// Overwriting through the alias must hit the same node, not mint a twin.
	if err := fs.CreateFile("a/b.js/", "y"); err != nil {
		t.Fatalf("CreateFile via alias failed: %v", err)
	}
	names, err := fs.ListDirectory("/a")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("expected 1 child in /a, got %d: %v", len(names), names)
	}
}

func TestCreateFileOverDirectoryConflicts(t *testing.T) {
	fs := New()

	if err := fs.CreateDirectory("/a/b"); err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}

	err := fs.CreateFile("/a/b", "x")
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}

	// The failed call must not have touched the tree.
	if _, err := fs.ListDirectory("/a/b"); err != nil {
		t.Errorf("/a/b is no longer a directory: %v", err)
	}
}

func TestCreateDirectoryOverFileConflicts(t *testing.T) {
	fs := New()

	if err := fs.CreateFile("/a", "x"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	if err := fs.CreateDirectory("/a"); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if err := fs.CreateFile("/a/b.js", "y"); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict creating under a file, got %v", err)
	}
}

func TestCreateDirectoryIdempotent(t *testing.T) {
	fs := New()

	if err := fs.CreateDirectory("/a"); err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	if err := fs.CreateDirectory("/a"); err != nil {
		t.Fatalf("second CreateDirectory failed: %v", err)
	}
}

func TestUpdateFileDoesNotCreate(t *testing.T) {
	fs := New()

	if err := fs.UpdateFile("/missing.js", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fs.Exists("/missing.js") {
		t.Error("UpdateFile implicitly created the file")
	}

	if err := fs.CreateFile("/a.js", "old"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if err := fs.UpdateFile("/a.js", "new"); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	content, _ := fs.ReadFile("/a.js")
	if content != "new" {
		t.Errorf("content = %q, want %q", content, "new")
	}
}

func TestDeleteSubtree(t *testing.T) {
	fs := New()

	for _, path := range []string{"/a/b/c.js", "/a/b/d.js", "/a/e.js"} {
		if err := fs.CreateFile(path, "x"); err != nil {
			t.Fatalf("CreateFile(%s) failed: %v", path, err)
		}
	}

	if err := fs.Delete("/a/b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, path := range []string{"/a/b", "/a/b/c.js", "/a/b/d.js"} {
		if fs.Exists(path) {
			t.Errorf("%s still exists after subtree delete", path)
		}
	}
	if !fs.Exists("/a/e.js") {
		t.Error("/a/e.js was deleted but is outside the subtree")
	}
}

func TestDeleteRootRejected(t *testing.T) {
	fs := New()

	if err := fs.Delete("/"); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	fs := New()

	if err := fs.Delete("/nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRenameRewritesDescendants(t *testing.T) {
	fs := New()

	if err := fs.CreateFile("/a/c.js", "x"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	if err := fs.Rename("/a", "/b"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if fs.Exists("/a/c.js") {
		t.Error("/a/c.js still exists after rename")
	}
	content, err := fs.ReadFile("/b/c.js")
	if err != nil {
		t.Fatalf("ReadFile(/b/c.js) failed: %v", err)
	}
	if content != "x" {
		t.Errorf("content = %q, want %q", content, "x")
	}

	info, err := fs.Stat("/b/c.js")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Path != "/b/c.js" {
		t.Errorf("descendant path = %q, want /b/c.js", info.Path)
	}
}

func TestRenameConflictsAndErrors(t *testing.T) {
	fs := New()

	if err := fs.CreateFile("/a.js", "x"); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateFile("/b.js", "y"); err != nil {
		t.Fatal(err)
	}

	if err := fs.Rename("/a.js", "/b.js"); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if err := fs.Rename("/missing.js", "/c.js"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := fs.CreateDirectory("/dir"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Rename("/dir", "/dir/sub"); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation moving dir inside itself, got %v", err)
	}
}

func TestListDirectorySorted(t *testing.T) {
	fs := New()

	for _, path := range []string{"/z.js", "/a.js", "/m/n.js"} {
		if err := fs.CreateFile(path, ""); err != nil {
			t.Fatal(err)
		}
	}

	names, err := fs.ListDirectory("/")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	want := []string{"a.js", "m", "z.js"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	if _, err := fs.ListDirectory("/a.js"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound listing a file, got %v", err)
	}
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	fs := New()

	var calls int
	unsubscribe := fs.Subscribe(func() { calls++ })

	if err := fs.CreateFile("/a.js", "x"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d after create, want 1", calls)
	}

	if err := fs.UpdateFile("/a.js", "y"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d after update, want 2", calls)
	}

	// Failed operations must not notify.
	_ = fs.UpdateFile("/missing.js", "z")
	if calls != 2 {
		t.Errorf("calls = %d after failed update, want 2", calls)
	}

	unsubscribe()
	if err := fs.Delete("/a.js"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d after unsubscribe, want 2", calls)
	}
}

func TestListenerMayReenterFS(t *testing.T) {
	fs := New()

	var snapshot Snapshot
	fs.Subscribe(func() { snapshot = fs.Serialize() })

	if err := fs.CreateFile("/a.js", "x"); err != nil {
		t.Fatal(err)
	}
	if _, ok := snapshot["/a.js"]; !ok {
		t.Error("listener saw a snapshot without the new file")
	}
}
