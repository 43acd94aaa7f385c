package graph

import "github.com/dnsgraph/dnsgraph/dnssec"

// Reduce removes structurally redundant edges. An edge is redundant when
// another path of two or more edges connects the same two nodes and the fold
// of that path's statuses equals the edge's status exactly: the longer path
// already tells the reader everything the direct edge does, and substituting
// an equal-status path can never change any node's effective status. Edges
// terminating at a trust-anchor node are never removed.
//
// Edges are examined in sorted id order against the live graph, so a
// candidate path never runs through an edge removed earlier in the same
// pass. Removal only shrinks the set of available paths, which makes Reduce
// idempotent: a kept edge stays kept, a removed edge stays removed.
func (g *Graph) Reduce() {
	for _, e := range g.Edges() {
		if target := g.nodes[e.To]; target != nil && target.TrustAnchor {
			continue
		}
		if g.redundant(e) {
			delete(g.edges, e.id())
		}
	}
}

// redundant reports whether an alternate path from e.From to e.To exists, at
// least two edges long, avoiding e itself, whose folded status equals
// e.Status.
func (g *Graph) redundant(e *Edge) bool {
	visited := map[string]bool{e.From: true}
	// Secure is the identity of Combine, so an empty path folds to it.
	return g.search(e, e.From, dnssec.Secure, 0, visited)
}

func (g *Graph) search(skip *Edge, at string, folded dnssec.Status, hops int, visited map[string]bool) bool {
	for _, e := range g.outgoing(at) {
		if e == skip {
			continue
		}

		next := dnssec.Combine(folded, e.Status)

		if e.To == skip.To {
			if hops+1 >= 2 && next == skip.Status {
				return true
			}
			continue
		}

		// Folding only ever weakens, so once below the wanted status no
		// extension can get back to it.
		if statusRank(next) < statusRank(skip.Status) {
			continue
		}

		if visited[e.To] {
			continue
		}
		visited[e.To] = true
		if g.search(skip, e.To, next, hops+1, visited) {
			return true
		}
		delete(visited, e.To)
	}
	return false
}
