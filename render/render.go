// Package render serializes a finished authentication graph into one of the
// supported output formats: DOT graph description, PNG/JPEG raster, SVG
// vector, or an interactive HTML document. Layout is delegated to Graphviz;
// this package only describes the graph.
package render

import (
	"io"

	"github.com/dnsgraph/dnsgraph/graph"
)

// Render serializes the graph and returns the bytes. The format is validated
// before any graph work is attempted.
func Render(g *graph.Graph, format Format) ([]byte, error) {
	switch format {
	case FormatDOT, FormatPNG, FormatJPG, FormatSVG, FormatHTML:
	default:
		return nil, &UnsupportedFormatError{Format: format.String()}
	}

	if g == nil {
		return nil, ErrNilGraph
	}

	switch format {
	case FormatDOT:
		return renderDOT(g), nil
	case FormatHTML:
		return renderHTML(g)
	default:
		return graphviz(renderDOT(g), format)
	}
}

// RenderTo serializes the graph to a writer.
func RenderTo(g *graph.Graph, format Format, w io.Writer) error {
	out, err := Render(g, format)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
