package document

import (
	"bytes"
	"html/template"
)

// Issue is one per-file build failure shown in the error listing.
type Issue struct {
	Path    string
	Message string
}

var errorTemplate = template.Must(template.New("errors").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Build Error</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 0 20px; }
        h1 { color: #e74c3c; }
        h2 { font-size: 1rem; font-family: ui-monospace, monospace; margin-bottom: 4px; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; margin-top: 0; }
    </style>
</head>
<body>
    <h1>Build failed</h1>
    {{range .Issues}}
    <h2>{{.Path}}</h2>
    <pre>{{.Message}}</pre>
    {{end}}
    <script>{{.Reload}}</script>
</body>
</html>
`))

// RenderErrorListing produces the document shown when any file failed to
// build. It lists every failure and never mounts the application.
func RenderErrorListing(issues []Issue) (string, error) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, map[string]any{
		"Issues": issues,
		"Reload": template.JS(reloadSource),
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
