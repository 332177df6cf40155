package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-studio/atelier/internal/vfs"
)

func call(t *testing.T, r *Registry, name, input string) string {
	t.Helper()
	out, err := r.Call(name, json.RawMessage(input))
	require.NoError(t, err)
	return out
}

func TestCreateAndView(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)

	out := call(t, r, "create_file", `{"path":"/App.tsx","content":"export default 1"}`)
	assert.Contains(t, out, "/App.tsx")

	out = call(t, r, "view", `{"path":"/App.tsx"}`)
	assert.Contains(t, out, "   1 | export default 1")

	out = call(t, r, "view", `{"path":"/"}`)
	assert.Contains(t, out, "App.tsx")
}

func TestViewDirectoryMarksSubdirectories(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)

	call(t, r, "create_file", `{"path":"/components/Button.tsx","content":""}`)

	out := call(t, r, "view", `{"path":"/"}`)
	assert.Contains(t, out, "components/")
}

func TestReplaceLiteralSubstring(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/App.tsx", "const title = \"Old\";"))

	call(t, r, "replace_in_file", `{"path":"/App.tsx","old_text":"\"Old\"","new_text":"\"New\""}`)

	content, err := fs.ReadFile("/App.tsx")
	require.NoError(t, err)
	assert.Equal(t, "const title = \"New\";", content)
}

func TestReplaceRejectsAmbiguousMatch(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/App.tsx", "a\na\n"))

	_, err := r.Call("replace_in_file", json.RawMessage(`{"path":"/App.tsx","old_text":"a","new_text":"b"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique")
}

func TestReplaceLineRange(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/x.txt", "one\ntwo\nthree\nfour"))

	call(t, r, "replace_in_file", `{"path":"/x.txt","new_text":"TWO\nTHREE","start_line":2,"end_line":3}`)

	content, _ := fs.ReadFile("/x.txt")
	assert.Equal(t, "one\nTWO\nTHREE\nfour", content)
}

func TestInsertAtLine(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/x.txt", "one\nthree"))

	call(t, r, "insert_at_line", `{"path":"/x.txt","line":2,"content":"two"}`)

	content, _ := fs.ReadFile("/x.txt")
	assert.Equal(t, "one\ntwo\nthree", content)

	_, err := r.Call("insert_at_line", json.RawMessage(`{"path":"/x.txt","line":99,"content":"x"}`))
	require.Error(t, err)
}

func TestUndoRestoresPreviousTree(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/App.tsx", "original"))

	call(t, r, "replace_in_file", `{"path":"/App.tsx","old_text":"original","new_text":"changed"}`)
	content, _ := fs.ReadFile("/App.tsx")
	require.Equal(t, "changed", content)

	out := call(t, r, "undo_edit", `{}`)
	assert.Contains(t, out, "Undid")

	content, _ = fs.ReadFile("/App.tsx")
	assert.Equal(t, "original", content)

	_, err := r.Call("undo_edit", json.RawMessage(`{}`))
	assert.Error(t, err, "second undo has nothing left")
}

func TestUndoNotCommittedOnFailedEdit(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)

	_, err := r.Call("delete", json.RawMessage(`{"path":"/missing"}`))
	require.Error(t, err)

	_, err = r.Call("undo_edit", json.RawMessage(`{}`))
	assert.Error(t, err, "failed edit must not become undoable")
}

func TestRenameAndDelete(t *testing.T) {
	fs := vfs.New()
	r := NewRegistry(fs)
	require.NoError(t, fs.CreateFile("/a/c.js", "x"))

	call(t, r, "rename", `{"old_path":"/a","new_path":"/b"}`)
	assert.True(t, fs.Exists("/b/c.js"))
	assert.False(t, fs.Exists("/a/c.js"))

	call(t, r, "delete", `{"path":"/b"}`)
	assert.False(t, fs.Exists("/b"))
}

func TestUnknownTool(t *testing.T) {
	r := NewRegistry(vfs.New())

	_, err := r.Call("format_disk", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTool)
}
