// Package document synthesizes the self-contained HTML loaded by the
// preview surface: import map, bootstrap module script and aggregated
// styles, with no dependency on the host page.
package document

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Page carries everything one render needs.
type Page struct {
	ImportMapJSON string
	CSS           string
	EntryKey      string
	Generation    uint64
}

const bootstrapSource = `import * as React from "react";
import { createRoot } from "react-dom/client";
import * as Entry from "{{.EntryKey}}";

const GENERATION = {{.Generation}};
const bridge = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/bridge");
const queue = [];
const report = (type, message) => {
  const payload = JSON.stringify({ type: type, generation: GENERATION, message: message || "" });
  if (bridge.readyState === WebSocket.OPEN) {
    bridge.send(payload);
  } else {
    queue.push(payload);
  }
};
bridge.addEventListener("open", () => {
  while (queue.length) {
    bridge.send(queue.shift());
  }
});

class Boundary extends React.Component {
  constructor(props) {
    super(props);
    this.state = { error: null };
  }
  static getDerivedStateFromError(error) {
    return { error: error };
  }
  componentDidCatch(error) {
    report("runtime-error", String((error && error.message) || error));
  }
  render() {
    if (this.state.error) {
      return React.createElement(
        "pre",
        { style: { color: "#e74c3c", padding: "16px", whiteSpace: "pre-wrap" } },
        String(this.state.error)
      );
    }
    return this.props.children;
  }
}

window.addEventListener("error", (event) => report("runtime-error", event.message));
window.addEventListener("unhandledrejection", (event) => report("runtime-error", String(event.reason)));

const Component =
  Entry.default ||
  Entry.App ||
  Object.values(Entry).find((x) => typeof x === "function");

if (!Component) {
  report("runtime-error", "no component export found in {{.EntryKey}}");
} else {
  const root = createRoot(document.getElementById("root"));
  root.render(React.createElement(Boundary, null, React.createElement(Component)));
  report("mounted", "");
}
`

const reloadSource = `(() => {
  const source = new EventSource("/events");
  source.addEventListener("reload", () => location.reload());
})();
`

var bootstrapTemplate = template.Must(template.New("bootstrap").Parse(bootstrapSource))

// escapeInline keeps embedded JSON, CSS and JS from closing the tag that
// wraps it.
func escapeInline(s string) string {
	return strings.ReplaceAll(s, "</", "<\\/")
}

// Render produces the full preview document.
func Render(page Page) (string, error) {
	if page.EntryKey == "" {
		return "", fmt.Errorf("missing entry key")
	}

	var bootstrap bytes.Buffer
	if err := bootstrapTemplate.Execute(&bootstrap, page); err != nil {
		return "", err
	}

	html := fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Preview</title>
    <script type="importmap">%s</script>
    <style>%s</style>
  </head>
  <body>
    <div id="root"></div>
    <script type="module">%s</script>
    <script>%s</script>
  </body>
</html>
`, escapeInline(page.ImportMapJSON), escapeInline(page.CSS), escapeInline(bootstrap.String()), reloadSource)

	return html, nil
}
