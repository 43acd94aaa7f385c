package render

import (
	"bytes"
	"os/exec"
	"testing"

	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/dnsgraph/dnsgraph/graph"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGraph builds a minimal chain: an anchored key signing a zone which
// signs an rrset, with one bogus edge so both palette ends appear.
func testGraph(t *testing.T) *graph.Graph {
	t.Helper()

	g := graph.New()

	anchor := g.AddNode(&graph.Node{
		ID:     graph.KeyID(".", 20326),
		Kind:   graph.KeyNode,
		Name:   ".",
		KeyTag: 20326,
		Status: dnssec.Secure,
	})
	anchor.TrustAnchor = true

	g.AddNode(&graph.Node{ID: graph.ZoneID("."), Kind: graph.ZoneNode, Name: ".", Status: dnssec.Secure})
	g.AddNode(&graph.Node{
		ID:     graph.RRSetID("www.example.com.", dns.TypeA),
		Kind:   graph.RRSetNode,
		Name:   "www.example.com.",
		Type:   dns.TypeA,
		Status: dnssec.Bogus,
	})

	require.NoError(t, g.AddEdge(&graph.Edge{From: anchor.ID, To: graph.ZoneID("."), Kind: graph.Signs, Status: dnssec.Secure}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: graph.ZoneID("."), To: graph.RRSetID("www.example.com.", dns.TypeA), Kind: graph.Signs, Status: dnssec.Bogus}))

	return g
}

func TestParseFormat(t *testing.T) {
	for tag, want := range map[string]Format{
		"dot":  FormatDOT,
		"png":  FormatPNG,
		"jpg":  FormatJPG,
		"jpeg": FormatJPG,
		"svg":  FormatSVG,
		"html": FormatHTML,
		"SVG":  FormatSVG,
	} {
		got, err := ParseFormat(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}

	_, err := ParseFormat("pdf")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "pdf", unsupported.Format)
}

func TestFormatFromPath(t *testing.T) {
	got, err := FormatFromPath("out/example.com.svg")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, got)

	_, err = FormatFromPath("no-extension")
	var unsupported *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)
}

func TestRender_NilGraph(t *testing.T) {
	_, err := Render(nil, FormatDOT)
	assert.ErrorIs(t, err, ErrNilGraph)
}

func TestRender_UnsupportedFormat(t *testing.T) {

	// Format validation happens before the nil-graph check.

	_, err := Render(nil, Format(99))
	var unsupported *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupported)
}

func TestRender_DOT(t *testing.T) {
	out, err := Render(testGraph(t), FormatDOT)
	require.NoError(t, err)

	assert.Contains(t, string(out), "digraph")
	assert.Contains(t, string(out), "www.example.com/A")
	assert.Contains(t, string(out), "DNSKEY <root> (tag 20326)")

	// Both palette ends made it in.
	assert.Contains(t, string(out), "#0a879a")
	assert.Contains(t, string(out), "#be1515")
}

func TestRender_HTML(t *testing.T) {
	out, err := Render(testGraph(t), FormatHTML)
	require.NoError(t, err)

	assert.Contains(t, string(out), AssetBase)
	assert.Contains(t, string(out), "const authGraph = `")
	assert.Contains(t, string(out), "digraph")
}

func TestRender_SVGThroughGraphviz(t *testing.T) {
	if _, err := exec.LookPath(GraphvizCommand); err != nil {
		t.Skipf("%s not installed", GraphvizCommand)
	}

	out, err := Render(testGraph(t), FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestRender_GraphvizFailure(t *testing.T) {
	old := GraphvizCommand
	GraphvizCommand = "definitely-not-a-real-binary"
	defer func() { GraphvizCommand = old }()

	_, err := Render(testGraph(t), FormatPNG)
	assert.ErrorIs(t, err, ErrGraphvizFailed)
}

func TestRenderTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTo(testGraph(t), FormatDOT, &buf))
	assert.Contains(t, buf.String(), "digraph")
}
