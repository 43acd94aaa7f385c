package render

import (
	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/dnsgraph/dnsgraph/graph"
	"github.com/emicklei/dot"
)

// Status palette, shared by every format. Secure chains render in green,
// bogus in red, provably insecure in black, indeterminate in grey.
func statusColor(s dnssec.Status) string {
	switch s {
	case dnssec.Secure:
		return "#0a879a"
	case dnssec.Bogus:
		return "#be1515"
	case dnssec.Insecure:
		return "#000000"
	default:
		return "#8d8d8d"
	}
}

// toDOT serializes the authentication graph into Graphviz DOT form, the
// native graph description and the intermediate form every other format is
// produced from.
func toDOT(g *graph.Graph) *dot.Graph {
	dg := dot.NewGraph(dot.Directed)
	dg.Attr("rankdir", "TB")
	dg.Attr("label", "DNSSEC authentication chain\nsolid: signs   bold: delegates   dashed: validates")
	dg.Attr("labelloc", "b")
	dg.Attr("fontsize", "10")

	for _, n := range g.Nodes() {
		dn := dg.Node(n.ID)
		dn.Attr("label", n.Label())
		dn.Attr("color", statusColor(n.Status))
		dn.Attr("fontcolor", statusColor(n.Status))
		dn.Attr("tooltip", n.Kind.String()+" "+n.Status.String())

		switch n.Kind {
		case graph.ZoneNode:
			dn.Attr("shape", "rectangle")
			dn.Attr("style", "rounded")
		case graph.KeyNode:
			dn.Attr("shape", "ellipse")
		case graph.DSNode:
			dn.Attr("shape", "diamond")
		default:
			dn.Attr("shape", "rectangle")
			if n.Negative {
				dn.Attr("style", "dashed")
			}
		}

		if n.TrustAnchor {
			dn.Attr("peripheries", "2")
			dn.Attr("style", "filled")
			dn.Attr("fillcolor", "#e9f2f3")
		}
	}

	for _, e := range g.Edges() {
		from := dg.Node(e.From)
		to := dg.Node(e.To)

		de := dg.Edge(from, to)
		de.Attr("color", statusColor(e.Status))
		de.Attr("tooltip", e.Kind.String()+" "+e.Status.String())

		switch e.Kind {
		case graph.Delegates:
			de.Attr("style", "bold")
		case graph.Validates:
			de.Attr("style", "dashed")
		}
	}

	return dg
}

func renderDOT(g *graph.Graph) []byte {
	return []byte(toDOT(g).String())
}
