package dnssec

import (
	"strings"

	"github.com/miekg/dns"
)

func dsMatchesKey(d *dns.DS, k *dns.DNSKEY) bool {
	if d.Algorithm != k.Algorithm || d.KeyTag != k.KeyTag() {
		return false
	}
	// ToDS returns nil for digest types it cannot compute; such a DS record
	// simply matches nothing.
	derived := k.ToDS(d.DigestType)
	if derived == nil {
		return false
	}
	return strings.EqualFold(d.Digest, derived.Digest)
}

// keySigningKeys returns the zone keys that have a matching DS record from
// the parent zone. These are the keys allowed to sign the DNSKEY rrset.
func keySigningKeys(dsRecords []*dns.DS, zoneKeys []*dns.DNSKEY) []*dns.DNSKEY {
	keys := make([]*dns.DNSKEY, 0, len(dsRecords))
	for _, d := range dsRecords {
		for _, k := range zoneKeys {
			if dsMatchesKey(d, k) {
				keys = append(keys, k)
				break
			}
		}
	}
	return keys
}

// anchorKeys returns the zone keys directly covered by a trust anchor.
func anchorKeys(anchors *AnchorSet, zoneKeys []*dns.DNSKEY) []*dns.DNSKEY {
	keys := make([]*dns.DNSKEY, 0, 1)
	for _, k := range zoneKeys {
		if anchors.Covers(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
