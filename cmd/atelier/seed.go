package main

import (
	"github.com/atelier-studio/atelier/internal/vfs"
)

// starterSnapshot seeds a brand-new project with a minimal working app.
func starterSnapshot() vfs.Snapshot {
	return vfs.Snapshot{
		"/App.tsx": {Type: vfs.EntryFile, Content: `import "./styles.css";
import { Button } from "@/components/Button";

export default function App() {
  return (
    <main className="app">
      <h1>Atelier</h1>
      <p>Edit any file and the preview reloads.</p>
      <Button label="Click me" />
    </main>
  );
}
`},
		"/components": {Type: vfs.EntryDirectory},
		"/components/Button.tsx": {Type: vfs.EntryFile, Content: `export function Button({ label }: { label: string }) {
  return <button onClick={() => alert(label)}>{label}</button>;
}
`},
		"/styles.css": {Type: vfs.EntryFile, Content: `.app {
  font-family: system-ui, sans-serif;
  max-width: 640px;
  margin: 48px auto;
}
`},
		"/package.json": {Type: vfs.EntryFile, Content: `{
  "name": "starter",
  "dependencies": {
    "react": "19.2.0",
    "react-dom": "19.2.0"
  }
}
`},
	}
}
