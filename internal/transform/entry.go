package transform

import (
	"github.com/atelier-studio/atelier/internal/vfs"
)

// entryCandidates is the fixed priority order for locating the application's
// top-level module at the tree root. First match wins.
var entryCandidates = []string{
	"/App.tsx",
	"/App.jsx",
	"/index.tsx",
	"/index.jsx",
	"/main.tsx",
	"/main.jsx",
}

// EntryCandidates returns the convention list, for error messages.
func EntryCandidates() []string {
	out := make([]string, len(entryCandidates))
	copy(out, entryCandidates)
	return out
}

// FindEntry returns the entry file path for a snapshot, or "".
func FindEntry(snapshot vfs.Snapshot) string {
	for _, candidate := range entryCandidates {
		if entry, ok := snapshot[candidate]; ok && entry.Type == vfs.EntryFile {
			return candidate
		}
	}
	return ""
}
