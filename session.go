// Package dnsgraph turns collected DNS/DNSSEC analysis data into a directed
// authentication graph and renders it. A Session ties the pieces together:
// stores are rebuilt from the analysis document, evaluated against the trust
// anchor set, contributed to a graph, and the finished graph is pruned of
// redundant edges before rendering.
package dnsgraph

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnsgraph/dnsgraph/analysis"
	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/dnsgraph/dnsgraph/graph"
	"github.com/miekg/dns"
)

// DefaultSkipQueryTypes returns the delegation-plumbing types excluded as
// top-level graph contributions.
func DefaultSkipQueryTypes() map[uint16]bool {
	return map[uint16]bool{
		dns.TypeNS:     true,
		dns.TypeDNSKEY: true,
		dns.TypeDS:     true,
		dns.TypeDLV:    true,
	}
}

// Session evaluates and graphs a batch of domain names against one analysis
// document and one trust anchor set. A Session must not be shared between
// goroutines; names needing parallel evaluation need fully isolated Sessions.
type Session struct {
	trace     *Trace
	doc       *analysis.Document
	evaluator *dnssec.Evaluator
}

func NewSession(doc *analysis.Document, anchors *dnssec.AnchorSet) *Session {
	return &Session{
		trace:     NewTrace(),
		doc:       doc,
		evaluator: dnssec.NewEvaluator(anchors),
	}
}

// Trace returns the session's trace.
func (s *Session) Trace() *Trace {
	return s.trace
}

// GraphAll accumulates every name's contributions into one shared graph,
// finalized once at the end.
func (s *Session) GraphAll(names []string) (*graph.Graph, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}

	builder := graph.NewBuilder()
	for _, name := range names {
		if err := s.contribute(builder, name); err != nil {
			return nil, err
		}
	}

	return s.finalize(builder), nil
}

// GraphEach builds, finalizes and hands over one independent graph per name,
// discarding builder state between names so no node identity leaks across
// per-name graphs.
func (s *Session) GraphEach(names []string, fn func(name string, g *graph.Graph) error) error {
	if len(names) == 0 {
		return ErrNoNames
	}

	for _, name := range names {
		builder := graph.NewBuilder()
		if err := s.contribute(builder, name); err != nil {
			return err
		}
		if err := fn(name, s.finalize(builder)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Session) contribute(builder *graph.Builder, name string) error {
	name = dns.CanonicalName(name)
	Info(fmt.Sprintf("[%s] graphing %s", s.trace.ShortID(), name))

	store, err := analysis.NewStore(s.doc, name)
	if err != nil {
		return err
	}
	Debug(spew.Sdump(store))

	ev, err := s.evaluator.Evaluate(store)
	if err != nil {
		return err
	}

	for _, key := range store.QueryKeys() {
		if SkipQueryTypes[key.Type] {
			Debug(fmt.Sprintf("[%s] skipping %s as a top-level contribution", s.trace.ShortID(), key))
			continue
		}
		if err := builder.Contribute(ev, key); err != nil {
			return err
		}
	}

	s.trace.NamesGraphed.Add(1)
	return nil
}

// finalize marks trust-anchor nodes, then prunes. Trust must be applied
// first: the reducer never removes an edge terminating at a trusted root.
func (s *Session) finalize(builder *graph.Builder) *graph.Graph {
	builder.ApplyTrust(s.evaluator.Anchors())
	g := builder.Graph()
	g.Reduce()
	Info(fmt.Sprintf("[%s] graph has %d nodes and %d edges", s.trace.ShortID(), g.NodeCount(), g.EdgeCount()))
	return g
}
