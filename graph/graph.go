// Package graph assembles the directed authentication graph: nodes for
// record sets, keys, delegation signers and zones, edges for the signing,
// delegation and validation relationships between them, each annotated with
// the evaluator's status. Node identity is derived from (owner name, kind,
// key tag), so repeated contributions collapse onto the same node.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/miekg/dns"
)

var (
	ErrUnknownEndpoint = errors.New("edge endpoint has not been added as a node")
	ErrUnknownNode     = errors.New("unknown node")
)

type NodeKind uint8

const (
	RRSetNode NodeKind = iota
	KeyNode
	DSNode
	ZoneNode
)

func (k NodeKind) String() string {
	switch k {
	case RRSetNode:
		return "rrset"
	case KeyNode:
		return "dnskey"
	case DSNode:
		return "ds"
	default:
		return "zone"
	}
}

type EdgeKind uint8

const (
	Signs EdgeKind = iota
	Delegates
	Validates
)

func (k EdgeKind) String() string {
	switch k {
	case Signs:
		return "signs"
	case Delegates:
		return "delegates"
	default:
		return "validates"
	}
}

// Node is one vertex of the authentication graph. Its ID is derived, never
// sequentially assigned, so equal contributions from different queries merge.
type Node struct {
	ID   string
	Kind NodeKind

	// Name is the owner name. Type is the rrtype for rrset nodes; KeyTag
	// identifies key and delegation-signer nodes.
	Name   string
	Type   uint16
	KeyTag uint16

	Status dnssec.Status

	// TrustAnchor marks the node as a trusted root. Set by ApplyTrust; it
	// changes rendering attributes, not topology.
	TrustAnchor bool

	// Key is retained on key nodes so trust anchors can be matched later.
	Key *dns.DNSKEY

	// Negative marks an rrset node that only exists as a negative response.
	Negative bool
}

// Edge is a directed, typed relationship. Direction runs from the
// authenticating node to the node it authenticates.
type Edge struct {
	From   string
	To     string
	Kind   EdgeKind
	Status dnssec.Status
}

func (e *Edge) id() string {
	return e.From + ">" + e.To + "#" + e.Kind.String()
}

// Derived node identities.

func RRSetID(name string, rrtype uint16) string {
	return fmt.Sprintf("rrset/%s/%s", dns.CanonicalName(name), dns.TypeToString[rrtype])
}

func KeyID(name string, keyTag uint16) string {
	return fmt.Sprintf("dnskey/%s/%d", dns.CanonicalName(name), keyTag)
}

func DSID(name string, keyTag uint16) string {
	return fmt.Sprintf("ds/%s/%d", dns.CanonicalName(name), keyTag)
}

func ZoneID(name string) string {
	return "zone/" + dns.CanonicalName(name)
}

// Graph owns the node and edge collections for one domain name, or for a
// merged multi-name session. Iteration order is always sorted by id so that
// rendering and reduction are deterministic.
type Graph struct {
	nodes map[string]*Node
	edges map[string]*Edge
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

// AddNode inserts a node, or merges with the existing node of the same
// derived id. On merge the worse status wins, so a node seen as bogus by one
// query never gets whitewashed by another.
func (g *Graph) AddNode(n *Node) *Node {
	existing, found := g.nodes[n.ID]
	if !found {
		g.nodes[n.ID] = n
		return n
	}

	existing.Status = dnssec.Combine(existing.Status, n.Status)
	existing.TrustAnchor = existing.TrustAnchor || n.TrustAnchor
	existing.Negative = existing.Negative && n.Negative
	if existing.Key == nil {
		existing.Key = n.Key
	}
	return existing
}

// AddEdge inserts an edge, deduplicated by (from, to, kind); duplicates merge
// onto the worse status. Both endpoints must already exist as nodes.
func (g *Graph) AddEdge(e *Edge) error {
	if _, found := g.nodes[e.From]; !found {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, e.From)
	}
	if _, found := g.nodes[e.To]; !found {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, e.To)
	}

	id := e.id()
	if existing, found := g.edges[id]; found {
		existing.Status = dnssec.Combine(existing.Status, e.Status)
		return nil
	}

	g.edges[id] = e
	return nil
}

func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns every node, sorted by id.
func (g *Graph) Nodes() []*Node {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns every edge, sorted by id.
func (g *Graph) Edges() []*Edge {
	ids := make([]string, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	edges := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		edges = append(edges, g.edges[id])
	}
	return edges
}

func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Anchors returns the nodes marked as trusted roots, sorted by id.
func (g *Graph) Anchors() []*Node {
	anchors := make([]*Node, 0, 1)
	for _, n := range g.Nodes() {
		if n.TrustAnchor {
			anchors = append(anchors, n)
		}
	}
	return anchors
}

func (g *Graph) outgoing(from string) []*Edge {
	edges := make([]*Edge, 0, 4)
	for _, e := range g.Edges() {
		if e.From == from {
			edges = append(edges, e)
		}
	}
	return edges
}

// EffectiveStatus is the status of the best path from any trust-anchor node
// to the given node, where a path's status is the fold of its edge statuses
// and "best" prefers secure over indeterminate over insecure over bogus.
// Unreachable nodes are indeterminate. A trust-anchor node is secure by
// definition.
func (g *Graph) EffectiveStatus(id string) (dnssec.Status, error) {
	target, found := g.nodes[id]
	if !found {
		return dnssec.Indeterminate, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if target.TrustAnchor {
		return dnssec.Secure, nil
	}

	// Fixpoint over the 4-level status lattice; strictly improving updates
	// only, so it terminates.
	best := make(map[string]dnssec.Status, len(g.nodes))
	for _, anchor := range g.Anchors() {
		best[anchor.ID] = dnssec.Secure
	}

	changed := true
	for changed {
		changed = false
		for _, e := range g.Edges() {
			from, known := best[e.From]
			if !known {
				continue
			}
			candidate := dnssec.Combine(from, e.Status)
			if current, seen := best[e.To]; !seen || statusRank(candidate) > statusRank(current) {
				best[e.To] = candidate
				changed = true
			}
		}
	}

	status, reachable := best[id]
	if !reachable {
		return dnssec.Indeterminate, nil
	}
	return status, nil
}

// statusRank orders statuses so that dnssec.Combine is exactly the minimum:
// bogus below insecure below indeterminate below secure. Path folding and
// best-path selection both use this one ordering.
func statusRank(s dnssec.Status) int {
	switch s {
	case dnssec.Secure:
		return 3
	case dnssec.Indeterminate:
		return 2
	case dnssec.Insecure:
		return 1
	default:
		return 0
	}
}

// Label is the human-readable name a renderer shows for the node.
func (n *Node) Label() string {
	name := n.Name
	if name == "." {
		name = "<root>"
	} else {
		name = strings.TrimSuffix(name, ".")
	}

	switch n.Kind {
	case RRSetNode:
		return fmt.Sprintf("%s/%s", name, dns.TypeToString[n.Type])
	case KeyNode:
		return fmt.Sprintf("DNSKEY %s (tag %d)", name, n.KeyTag)
	case DSNode:
		return fmt.Sprintf("DS %s (tag %d)", name, n.KeyTag)
	default:
		return name
	}
}
