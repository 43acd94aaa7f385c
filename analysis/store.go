// Package analysis holds the in-memory form of one domain name's collected
// DNS/DNSSEC response data: the queried rrsets with their signatures, the
// negative-response markers, and the delegation chain from the root zone down
// to the name's closest enclosing zone. Stores are reconstructed from a
// serialized document and perform no validation of their own.
package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/miekg/dns"
)

// QueryKey identifies one unit of collected data: a (queried name, rrtype) pair.
type QueryKey struct {
	Name string
	Type uint16
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s/%s", k.Name, dns.TypeToString[k.Type])
}

// ServerMarker records which server, queried by which client, produced a
// negative outcome for a query.
type ServerMarker struct {
	Server string
	Client string
}

// RRSet is a record set together with the RRSIGs that were served covering it.
type RRSet struct {
	Records    []dns.RR
	Signatures []*dns.RRSIG
}

// QueryData is the collected material for a single QueryKey.
type QueryData struct {
	Key        QueryKey
	Records    []dns.RR
	Signatures []*dns.RRSIG
	NXDomain   []ServerMarker
	NoAnswer   []ServerMarker
}

// Negative reports whether the query produced no records at all, only
// negative-response markers.
func (q *QueryData) Negative() bool {
	return len(q.Records) == 0
}

// ZoneData is one zone's worth of delegation material: its apex DNSKEY rrset
// and the DS rrset its parent serves for it. DSAbsent is set when the parent
// provably attested that no DS exists (the collector has already verified the
// covering denial-of-existence proof).
type ZoneData struct {
	Name     string
	Parent   string
	DNSKEY   *RRSet
	DS       *RRSet
	DSAbsent bool
}

// Keys returns the zone's DNSKEY records, typed.
func (z *ZoneData) Keys() []*dns.DNSKEY {
	if z.DNSKEY == nil {
		return nil
	}
	return extractRecords[*dns.DNSKEY](z.DNSKEY.Records)
}

// DSRecords returns the DS records the parent serves for this zone, typed.
func (z *ZoneData) DSRecords() []*dns.DS {
	if z.DS == nil {
		return nil
	}
	return extractRecords[*dns.DS](z.DS.Records)
}

// Store is the full collected picture for one domain name. It is read-only
// once built; validation state lives with the evaluator, not here.
type Store struct {
	// Name is the canonical domain name this store describes.
	Name string

	// Zone is the closest enclosing zone of Name.
	Zone string

	// Queries maps each collected QueryKey to its material.
	Queries map[QueryKey]*QueryData

	// Chain is the delegation chain, root zone first, ending at Zone.
	Chain []*ZoneData
}

// QueryKeys returns every known QueryKey in a stable, sorted order.
func (s *Store) QueryKeys() []QueryKey {
	keys := make([]QueryKey, 0, len(s.Queries))
	for k := range s.Queries {
		keys = append(keys, k)
	}
	sortQueryKeys(keys)
	return keys
}

// Query returns the collected data for one key, or nil if the key is unknown.
func (s *Store) Query(k QueryKey) *QueryData {
	return s.Queries[k]
}

// ZoneAt returns the chain entry for the given zone name, or nil.
func (s *Store) ZoneAt(name string) *ZoneData {
	for _, z := range s.Chain {
		if namesEqual(z.Name, name) {
			return z
		}
	}
	return nil
}

func sortQueryKeys(keys []QueryKey) {
	slices.SortFunc(keys, func(a, b QueryKey) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.Type) - int(b.Type)
	})
}

func extractRecords[T dns.RR](rr []dns.RR) []T {
	r := make([]T, 0, len(rr))
	for _, record := range rr {
		if typedRecord, ok := record.(T); ok {
			r = append(r, typedRecord)
		}
	}
	return r
}
