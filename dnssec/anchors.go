package dnssec

import (
	"bufio"
	"io"
	"strings"

	"github.com/miekg/dns"
	"github.com/nsmithuk/dnssec-root-anchors-go/anchors"
)

// AnchorSet is a parsed collection of trusted keys, in the order they were
// read. Anchors may be given in DNSKEY form (the key itself) or DS form
// (a digest of it); both count as roots of validation. Immutable once parsed.
type AnchorSet struct {
	names []string
	keys  map[string][]*dns.DNSKEY
	ds    map[string][]*dns.DS
}

// RootAnchors returns the built-in set: the currently valid root zone
// key-signing-key digests.
func RootAnchors() *AnchorSet {
	set := newAnchorSet()
	for _, d := range anchors.GetValid() {
		set.addDS(d)
	}
	return set
}

// ParseAnchors reads zone-file-style key records, one per line. Blank lines
// and comments are skipped. DNSKEY and DS records become anchors; DLV records
// are accepted for backwards compatibility but never used; anything else is
// a KeyParseError, as is unparseable record text.
func ParseAnchors(r io.Reader) (*AnchorSet, error) {
	set := newAnchorSet()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") || strings.HasPrefix(text, "#") {
			continue
		}

		rr, err := dns.NewRR(text)
		if err != nil {
			return nil, &KeyParseError{Line: line, Err: err}
		}
		if rr == nil {
			continue
		}

		switch rr := rr.(type) {
		case *dns.DNSKEY:
			set.addKey(rr)
		case *dns.DS:
			set.addDS(rr)
		case *dns.DLV:
			Warn("ignoring DLV trust anchor for " + rr.Header().Name)
		default:
			return nil, &KeyParseError{Line: line, Err: ErrNotAnAnchor}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &KeyParseError{Line: line, Err: err}
	}

	return set, nil
}

func newAnchorSet() *AnchorSet {
	return &AnchorSet{
		keys: make(map[string][]*dns.DNSKEY),
		ds:   make(map[string][]*dns.DS),
	}
}

func (a *AnchorSet) addKey(key *dns.DNSKEY) {
	name := dns.CanonicalName(key.Header().Name)
	a.noteName(name)
	a.keys[name] = append(a.keys[name], key)
}

func (a *AnchorSet) addDS(d *dns.DS) {
	name := dns.CanonicalName(d.Header().Name)
	a.noteName(name)
	a.ds[name] = append(a.ds[name], d)
}

func (a *AnchorSet) noteName(name string) {
	if len(a.keys[name]) == 0 && len(a.ds[name]) == 0 {
		a.names = append(a.names, name)
	}
}

// Empty reports whether the set holds no anchors at all. With an empty set no
// record can ever be judged secure.
func (a *AnchorSet) Empty() bool {
	return len(a.names) == 0
}

// Names returns the anchor owner names in the order first seen.
func (a *AnchorSet) Names() []string {
	return a.names
}

// HasAnchorFor reports whether any anchor exists with the given owner name.
func (a *AnchorSet) HasAnchorFor(zone string) bool {
	zone = dns.CanonicalName(zone)
	return len(a.keys[zone]) > 0 || len(a.ds[zone]) > 0
}

// Covers reports whether the given zone key is directly trusted: either a
// DNSKEY anchor equals it, or a DS anchor's digest matches it.
func (a *AnchorSet) Covers(key *dns.DNSKEY) bool {
	name := dns.CanonicalName(key.Header().Name)

	for _, anchor := range a.keys[name] {
		if anchor.Algorithm == key.Algorithm && anchor.KeyTag() == key.KeyTag() &&
			anchor.Flags == key.Flags && anchor.PublicKey == key.PublicKey {
			return true
		}
	}

	for _, anchor := range a.ds[name] {
		if dsMatchesKey(anchor, key) {
			return true
		}
	}

	return false
}
