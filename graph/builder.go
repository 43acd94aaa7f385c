package graph

import (
	"github.com/dnsgraph/dnsgraph/analysis"
	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/miekg/dns"
)

// Builder incrementally populates one Graph from evaluated analysis data.
// Contributions for overlapping material (the same key referenced by two
// queried names, shared ancestor zones) merge onto identical node identities.
type Builder struct {
	graph *Graph
}

func NewBuilder() *Builder {
	return &Builder{graph: New()}
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// Contribute adds the nodes and edges implied by the evaluated data for one
// query key: the queried rrset node, its signing key nodes and signature
// edges, and the delegation chain above the zone the rrset lives in.
func (b *Builder) Contribute(ev *dnssec.Evaluation, key analysis.QueryKey) error {
	qr, found := ev.Queries[key]
	if !found {
		return nil
	}

	if err := b.contributeChain(ev); err != nil {
		return err
	}

	q := ev.Store.Query(key)
	rrset := b.graph.AddNode(&Node{
		ID:       RRSetID(key.Name, key.Type),
		Kind:     RRSetNode,
		Name:     key.Name,
		Type:     key.Type,
		Status:   qr.Status,
		Negative: q != nil && q.Negative(),
	})

	zoneID := ZoneID(ev.Store.Zone)

	// The signing key's own standing comes from its zone's chain, not from
	// the outcome of this one query.
	keyStatus := dnssec.Indeterminate
	if zr := ev.Zone(ev.Store.Zone); zr != nil {
		keyStatus = zr.Status
	}

	for _, sig := range qr.Signatures {
		keyNode := b.signerNode(sig, keyStatus)
		if keyNode == nil {
			continue
		}
		if err := b.graph.AddEdge(&Edge{From: keyNode.ID, To: rrset.ID, Kind: Signs, Status: sig.Status}); err != nil {
			return err
		}
	}

	// An unsigned or negative rrset still hangs off its zone, so broken
	// spots stay visible in the rendered chain.
	if len(qr.Signatures) == 0 {
		if err := b.graph.AddEdge(&Edge{From: zoneID, To: rrset.ID, Kind: Delegates, Status: qr.Status}); err != nil {
			return err
		}
	}

	return nil
}

// contributeChain adds the zone, key and delegation-signer structure for the
// store's chain, root zone first.
func (b *Builder) contributeChain(ev *dnssec.Evaluation) error {
	var parent *dnssec.ZoneResult

	for _, zr := range ev.ChainResults() {
		zone := b.graph.AddNode(&Node{
			ID:     ZoneID(zr.Name),
			Kind:   ZoneNode,
			Name:   zr.Name,
			Status: zr.Status,
		})

		// Keys that signed the DNSKEY rrset, and the edges recording it.
		for _, sig := range zr.KeySigs {
			keyNode := b.signerNode(sig, zr.Status)
			if keyNode == nil {
				continue
			}
			if err := b.graph.AddEdge(&Edge{From: keyNode.ID, To: zone.ID, Kind: Signs, Status: sig.Status}); err != nil {
				return err
			}
		}

		// The zone cut: DS nodes under the parent, validation edges to the
		// child keys they match.
		if parent != nil {
			parentID := ZoneID(parent.Name)
			if err := b.graph.AddEdge(&Edge{From: parentID, To: zone.ID, Kind: Delegates, Status: zr.Status}); err != nil {
				return err
			}

			for _, d := range zr.DS {
				dsNode := b.graph.AddNode(&Node{
					ID:     DSID(zr.Name, d.KeyTag),
					Kind:   DSNode,
					Name:   zr.Name,
					KeyTag: d.KeyTag,
					Status: zr.DSStatus,
				})

				for _, sig := range zr.DSSigs {
					signer := b.signerNode(sig, parent.Status)
					if signer == nil {
						continue
					}
					if err := b.graph.AddEdge(&Edge{From: signer.ID, To: dsNode.ID, Kind: Signs, Status: sig.Status}); err != nil {
						return err
					}
				}

				for _, sep := range zr.SEPs {
					if sep.KeyTag() != d.KeyTag {
						continue
					}
					keyNode := b.addKeyNode(sep, zr.Status)
					if err := b.graph.AddEdge(&Edge{From: dsNode.ID, To: keyNode.ID, Kind: Validates, Status: zr.Status}); err != nil {
						return err
					}
				}
			}
		}

		parent = zr
	}

	return nil
}

func (b *Builder) addKeyNode(key *dns.DNSKEY, status dnssec.Status) *Node {
	return b.graph.AddNode(&Node{
		ID:     KeyID(key.Header().Name, key.KeyTag()),
		Kind:   KeyNode,
		Name:   key.Header().Name,
		KeyTag: key.KeyTag(),
		Status: status,
		Key:    key,
	})
}

// signerNode adds the node for the key a signature names. A signature that
// failed verification still identifies its signer through the rrsig fields,
// so its edge is drawn rather than the rrset left dangling.
func (b *Builder) signerNode(sig *dnssec.SignatureResult, status dnssec.Status) *Node {
	name, keyTag, ok := sig.Signer()
	if !ok {
		return nil
	}
	return b.graph.AddNode(&Node{
		ID:     KeyID(name, keyTag),
		Kind:   KeyNode,
		Name:   dns.CanonicalName(name),
		KeyTag: keyTag,
		Status: status,
		Key:    sig.Key,
	})
}

// ApplyTrust marks every key node covered by an anchor as a trusted root.
// Call it after all contributions and before Reduce: the reducer treats
// edges terminating at a trusted root as never redundant.
func (b *Builder) ApplyTrust(anchors *dnssec.AnchorSet) {
	for _, n := range b.graph.Nodes() {
		if n.Kind != KeyNode || n.Key == nil {
			continue
		}
		if anchors.Covers(n.Key) {
			n.TrustAnchor = true
		}
	}
}
