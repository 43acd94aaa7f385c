package analysis

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"
)

// The wire shape of an analysis document: a mapping from domain-name strings
// to per-name blocks. Field names are an external contract fixed by the
// collector that produced the document.
type nameBlock struct {
	Zone     string        `yaml:"zone" json:"zone"`
	Parent   string        `yaml:"parent" json:"parent"`
	Queries  []*queryBlock `yaml:"queries" json:"queries"`
	DNSKEY   *rrsetBlock   `yaml:"dnskey" json:"dnskey"`
	DS       *rrsetBlock   `yaml:"ds" json:"ds"`
	DSAbsent bool          `yaml:"ds_absent" json:"ds_absent"`
}

type queryBlock struct {
	Name       string        `yaml:"name" json:"name"`
	Type       string        `yaml:"type" json:"type"`
	Records    []string      `yaml:"records" json:"records"`
	Signatures []string      `yaml:"signatures" json:"signatures"`
	NXDomain   []markerBlock `yaml:"nxdomain" json:"nxdomain"`
	NoAnswer   []markerBlock `yaml:"noanswer" json:"noanswer"`
}

type rrsetBlock struct {
	Records    []string `yaml:"records" json:"records"`
	Signatures []string `yaml:"signatures" json:"signatures"`
}

type markerBlock struct {
	Server string `yaml:"server" json:"server"`
	Client string `yaml:"client" json:"client"`
}

// Document is a decoded analysis document, holding the blocks for every name
// the collector wrote. Stores for individual names are built from it with
// NewStore.
type Document struct {
	blocks map[string]*nameBlock
}

// Decode reads a YAML analysis document.
func Decode(r io.Reader) (*Document, error) {
	raw := make(map[string]*nameBlock)
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return newDocument(raw)
}

// DecodeJSON reads a JSON analysis document.
func DecodeJSON(r io.Reader) (*Document, error) {
	raw := make(map[string]*nameBlock)
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return newDocument(raw)
}

func newDocument(raw map[string]*nameBlock) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, ErrEmptyDocument)
	}

	// Keys are re-indexed under their canonical form so lookups are
	// case-insensitive and tolerant of a missing trailing dot.
	blocks := make(map[string]*nameBlock, len(raw))
	for name, block := range raw {
		if block == nil {
			block = &nameBlock{}
		}
		blocks[dns.CanonicalName(name)] = block
	}

	return &Document{blocks: blocks}, nil
}

// Names returns every name the document has a block for.
func (doc *Document) Names() []string {
	names := make([]string, 0, len(doc.blocks))
	for name := range doc.blocks {
		names = append(names, name)
	}
	return names
}

// NewStore reconstructs the Analysis Store for one name from the document,
// resolving the zone/parent cross-references to other blocks to assemble the
// delegation chain. It fails with ErrMalformedInput if the document has no
// entry for the name (or a referenced ancestor), and with ErrSchema if a
// block's fields are missing or malformed.
func NewStore(doc *Document, name string) (*Store, error) {
	name = dns.CanonicalName(name)

	block, found := doc.blocks[name]
	if !found {
		return nil, fmt.Errorf("%w: no block for %s", ErrMalformedInput, name)
	}

	store := &Store{
		Name:    name,
		Queries: make(map[QueryKey]*QueryData, len(block.Queries)),
	}

	for i, q := range block.Queries {
		data, err := parseQueryBlock(name, i, q)
		if err != nil {
			return nil, err
		}
		store.Queries[data.Key] = data
	}

	if err := resolveChain(doc, store, block); err != nil {
		return nil, err
	}

	return store, nil
}

func parseQueryBlock(name string, i int, q *queryBlock) (*QueryData, error) {
	where := fmt.Sprintf("queries[%d]", i)

	if q == nil || q.Name == "" || q.Type == "" {
		return nil, fieldErr(name, where, ErrSchema)
	}

	rrtype, known := dns.StringToType[q.Type]
	if !known {
		return nil, fieldErr(name, where+".type", fmt.Errorf("%w: %w: %q", ErrSchema, ErrUnknownRRType, q.Type))
	}

	data := &QueryData{
		Key: QueryKey{Name: dns.CanonicalName(q.Name), Type: rrtype},
	}

	var err error
	if data.Records, err = parseRecords(q.Records); err != nil {
		return nil, fieldErr(name, where+".records", fmt.Errorf("%w: %w", ErrSchema, err))
	}
	if data.Signatures, err = parseSignatures(q.Signatures); err != nil {
		return nil, fieldErr(name, where+".signatures", fmt.Errorf("%w: %w", ErrSchema, err))
	}

	for _, m := range q.NXDomain {
		data.NXDomain = append(data.NXDomain, ServerMarker(m))
	}
	for _, m := range q.NoAnswer {
		data.NoAnswer = append(data.NoAnswer, ServerMarker(m))
	}

	return data, nil
}

// resolveChain walks the zone/parent references from the store's closest
// enclosing zone up to the root, then records the chain root-first.
func resolveChain(doc *Document, store *Store, block *nameBlock) error {
	zoneName := dns.CanonicalName(block.Zone)
	if block.Zone == "" {
		// When the collector omitted the zone field, the closest ancestor
		// with key material stands in for it.
		zoneName = closestZone(doc, store.Name)
		if zoneName == "" {
			return fieldErr(store.Name, "zone", ErrSchema)
		}
	}

	if !dns.IsSubDomain(zoneName, store.Name) {
		return fieldErr(store.Name, "zone", fmt.Errorf("%w: %w: %s", ErrSchema, ErrZoneNotAncestor, zoneName))
	}

	store.Zone = zoneName

	chain := make([]*ZoneData, 0, dns.CountLabel(zoneName)+1)
	seen := make(map[string]bool)

	for current := zoneName; ; {
		if seen[current] {
			return fieldErr(store.Name, "parent", fmt.Errorf("%w: %w at %s", ErrMalformedInput, ErrDelegationLoop, current))
		}
		seen[current] = true

		zoneBlock, found := doc.blocks[current]
		if !found {
			return fmt.Errorf("%w: %w: %s", ErrMalformedInput, ErrDanglingParent, current)
		}

		zone, err := parseZoneBlock(current, zoneBlock)
		if err != nil {
			return err
		}
		chain = append(chain, zone)

		if namesEqual(current, ".") {
			break
		}

		if zoneBlock.Parent == "" {
			// The collector's chain stops here; the evaluator decides what
			// an incomplete chain is worth.
			break
		}
		parent := dns.CanonicalName(zoneBlock.Parent)
		if !dns.IsSubDomain(parent, current) || namesEqual(parent, current) {
			return fieldErr(current, "parent", fmt.Errorf("%w: %s is not an ancestor of %s", ErrSchema, parent, current))
		}
		zone.Parent = parent
		current = parent
	}

	// Root zone first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	store.Chain = chain

	return nil
}

// closestZone returns the longest ancestor of name whose block carries
// DNSKEY material, or "" when no such block exists.
func closestZone(doc *Document, name string) string {
	chain := ancestors(name)
	for i := len(chain) - 1; i >= 0; i-- {
		if block, found := doc.blocks[chain[i]]; found && block.DNSKEY != nil {
			return chain[i]
		}
	}
	return ""
}

func parseZoneBlock(name string, block *nameBlock) (*ZoneData, error) {
	if block.DS != nil && block.DSAbsent {
		return nil, fieldErr(name, "ds", fmt.Errorf("%w: %w", ErrSchema, ErrConflictingDS))
	}

	zone := &ZoneData{
		Name:     name,
		DSAbsent: block.DSAbsent,
	}

	var err error
	if zone.DNSKEY, err = parseRRSetBlock(block.DNSKEY); err != nil {
		return nil, fieldErr(name, "dnskey", fmt.Errorf("%w: %w", ErrSchema, err))
	}
	if zone.DS, err = parseRRSetBlock(block.DS); err != nil {
		return nil, fieldErr(name, "ds", fmt.Errorf("%w: %w", ErrSchema, err))
	}

	return zone, nil
}

func parseRRSetBlock(block *rrsetBlock) (*RRSet, error) {
	if block == nil {
		return nil, nil
	}

	set := &RRSet{}

	var err error
	if set.Records, err = parseRecords(block.Records); err != nil {
		return nil, err
	}
	if set.Signatures, err = parseSignatures(block.Signatures); err != nil {
		return nil, err
	}

	return set, nil
}

func parseRecords(records []string) ([]dns.RR, error) {
	set := make([]dns.RR, 0, len(records))
	for _, s := range records {
		rr, err := dns.NewRR(s)
		if err != nil {
			return nil, err
		}
		if rr == nil {
			// dns.NewRR returns nil for blank strings.
			continue
		}
		set = append(set, rr)
	}
	return set, nil
}

func parseSignatures(records []string) ([]*dns.RRSIG, error) {
	set := make([]*dns.RRSIG, 0, len(records))
	for _, s := range records {
		rr, err := dns.NewRR(s)
		if err != nil {
			return nil, err
		}
		rrsig, ok := rr.(*dns.RRSIG)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotASignature, s)
		}
		set = append(set, rrsig)
	}
	return set, nil
}
