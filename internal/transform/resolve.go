package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/atelier-studio/atelier/internal/vfs"
)

const (
	// DefaultAlias maps root-relative import specifiers onto the tree root.
	DefaultAlias = "@/"
	// DefaultCDNBase resolves external package names to fetchable modules.
	DefaultCDNBase = "https://esm.sh"
)

// scriptExtensions is the probe order for extensionless specifiers.
var scriptExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

var (
	staticImportRe  = regexp.MustCompile(`(?m)\b(?:import|export)\s+(?:[\w$*{}\s,]+?from\s+)?["']([^"'\n]+)["']`)
	dynamicImportRe = regexp.MustCompile(`\bimport\s*\(\s*["']([^"'\n]+)["']\s*\)`)
)

// resolver classifies and rewrites import specifiers for one pipeline run.
type resolver struct {
	snapshot vfs.Snapshot
	alias    string
	cdnBase  string
	pins     map[string]string
}

func newResolver(snapshot vfs.Snapshot, alias, cdnBase string) *resolver {
	r := &resolver{
		snapshot: snapshot,
		alias:    alias,
		cdnBase:  cdnBase,
		pins:     map[string]string{},
	}

	// Version pins come from the workspace's own package.json when present.
	if entry, ok := snapshot["/package.json"]; ok && entry.Type == vfs.EntryFile {
		gjson.Get(entry.Content, "dependencies").ForEach(func(name, version gjson.Result) bool {
			r.pins[name.String()] = strings.TrimLeft(version.String(), "^~")
			return true
		})
	}

	return r
}

// rewriteImports rewrites every import specifier in code to its canonical
// form: an absolute tree path for alias/relative specifiers, the untouched
// package name for externals (the import map carries those to the CDN).
// Unresolvable specifiers are reported and left in place.
func (r *resolver) rewriteImports(importerPath, code string) (rewritten string, imports []string, errs []error) {
	importerDir := path.Dir(importerPath)
	seen := map[string]bool{}

	replace := func(statement, spec, dropped string) string {
		canonical, err := r.resolve(spec, importerDir)
		if err != nil {
			if !seen[spec] {
				seen[spec] = true
				errs = append(errs, err)
			}
			return statement
		}
		// Style imports are satisfied by the aggregated style block, not
		// the module graph.
		if !isExternal(canonical) && isStylePath(canonical) {
			return dropped
		}
		if !seen[canonical] {
			seen[canonical] = true
			imports = append(imports, canonical)
		}
		if canonical == spec {
			return statement
		}
		statement = strings.Replace(statement, `"`+spec+`"`, `"`+canonical+`"`, 1)
		return strings.Replace(statement, `'`+spec+`'`, `"`+canonical+`"`, 1)
	}

	rewritten = staticImportRe.ReplaceAllStringFunc(code, func(statement string) string {
		spec := staticImportRe.FindStringSubmatch(statement)[1]
		return replace(statement, spec, "")
	})
	rewritten = dynamicImportRe.ReplaceAllStringFunc(rewritten, func(statement string) string {
		spec := dynamicImportRe.FindStringSubmatch(statement)[1]
		return replace(statement, spec, "Promise.resolve({})")
	})

	return rewritten, imports, errs
}

// resolve maps one specifier to either an absolute tree path or an external
// package name.
func (r *resolver) resolve(spec, importerDir string) (string, error) {
	switch {
	case strings.HasPrefix(spec, r.alias):
		target := vfs.NormalizePath(strings.TrimPrefix(spec, r.alias))
		return r.probe(spec, target)
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		target := path.Clean(path.Join(importerDir, spec))
		return r.probe(spec, target)
	case strings.HasPrefix(spec, "/"):
		return r.probe(spec, vfs.NormalizePath(spec))
	default:
		return spec, nil
	}
}

// probe tries the literal path, then known extensions, then an index file
// inside a matching directory.
func (r *resolver) probe(spec, target string) (string, error) {
	if entry, ok := r.snapshot[target]; ok && entry.Type == vfs.EntryFile {
		return target, nil
	}
	for _, ext := range scriptExtensions {
		candidate := target + ext
		if entry, ok := r.snapshot[candidate]; ok && entry.Type == vfs.EntryFile {
			return candidate, nil
		}
	}
	if entry, ok := r.snapshot[target]; ok && entry.Type == vfs.EntryDirectory {
		for _, ext := range scriptExtensions {
			candidate := target + "/index" + ext
			if entry, ok := r.snapshot[candidate]; ok && entry.Type == vfs.EntryFile {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("cannot resolve import %q (tried %s, extensions, and index files)", spec, target)
}

// externalURL rewrites a bare package specifier to a fully qualified CDN
// address, pinning the version when the dependency list declares one.
// Subpaths survive: "react-dom/client" with react-dom pinned to 19.2.0
// becomes <cdn>/react-dom@19.2.0/client.
func (r *resolver) externalURL(spec string) string {
	name := spec
	subpath := ""

	segments := strings.SplitN(spec, "/", 3)
	if strings.HasPrefix(spec, "@") {
		if len(segments) >= 2 {
			name = segments[0] + "/" + segments[1]
			subpath = strings.TrimPrefix(spec, name)
		}
	} else {
		name = segments[0]
		subpath = strings.TrimPrefix(spec, name)
	}

	if version, ok := r.pins[name]; ok && version != "" {
		return r.cdnBase + "/" + name + "@" + version + subpath
	}
	return r.cdnBase + "/" + name + subpath
}

// isExternal reports whether a canonical import key names a package rather
// than a tree path.
func isExternal(key string) bool {
	return !strings.HasPrefix(key, "/")
}
