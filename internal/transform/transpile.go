package transform

import (
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// loaderForPath maps a script extension to its esbuild loader. Plain .js is
// fed through the JSX loader so component syntax works regardless of
// extension, matching how interactively generated files tend to be named.
func loaderForPath(filePath string) (api.Loader, bool) {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".tsx":
		return api.LoaderTSX, true
	case ".ts":
		return api.LoaderTS, true
	case ".jsx", ".js", ".mjs":
		return api.LoaderJSX, true
	default:
		return 0, false
	}
}

func isScriptPath(filePath string) bool {
	_, ok := loaderForPath(filePath)
	return ok
}

func isStylePath(filePath string) bool {
	return strings.ToLower(path.Ext(filePath)) == ".css"
}

// transpile converts one source file to plain ES module statements. A syntax
// error is returned as a formatted message, never a panic; the caller records
// it as that file's error artifact.
func (p *Pipeline) transpile(filePath, content string) (string, error) {
	loader, ok := loaderForPath(filePath)
	if !ok {
		return "", fmt.Errorf("no loader for %s", filePath)
	}

	key := contentKey(filePath, content)
	if outcome, hit := p.cache.get(key); hit {
		if outcome.failure != "" {
			return "", fmt.Errorf("%s", outcome.failure)
		}
		return outcome.code, nil
	}

	result := api.Transform(content, api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatESModule,
		JSX:        api.JSXAutomatic,
		Target:     api.ESNext,
		Sourcefile: filePath,
	})

	if len(result.Errors) > 0 {
		message := formatTranspileError(result.Errors[0])
		p.cache.set(key, transpileOutcome{failure: message})
		return "", fmt.Errorf("%s", message)
	}

	code := string(result.Code)
	p.cache.set(key, transpileOutcome{code: code})
	return code, nil
}

func formatTranspileError(msg api.Message) string {
	if msg.Location != nil {
		return fmt.Sprintf("line %d: %s", msg.Location.Line, msg.Text)
	}
	return msg.Text
}
