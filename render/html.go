package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/dnsgraph/dnsgraph/graph"
)

//go:embed template.html
var documentTemplate string

var htmlTemplate = template.Must(template.New("document").Parse(documentTemplate))

// renderHTML embeds a script-executable rendering of the graph into the
// document template, substituting the asset base path and the generated
// script payload into the template's named placeholders. The graph travels
// as DOT source inside the payload; the document renders it client-side.
func renderHTML(g *graph.Graph) ([]byte, error) {
	dotSource := renderDOT(g)

	// DOT output never contains a backtick, so a template literal is safe.
	script := fmt.Sprintf("const authGraph = `%s`;", dotSource)

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		AssetBase string
		Script    template.JS
	}{
		AssetBase: AssetBase,
		Script:    template.JS(script),
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
