package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"time"

	"github.com/dnsgraph/dnsgraph/analysis"
	"github.com/miekg/dns"
)

const DnskeyFlagCsk = 257

//---

func newRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(err)
	}
	return rr
}

type testKey struct {
	key    *dns.DNSKEY
	ds     *dns.DS
	signer crypto.Signer
}

func testEcKey(zone string) *testKey {
	dnskey := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   zone,
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    300,
		},
		Flags:     DnskeyFlagCsk,
		Protocol:  3,
		Algorithm: dns.ECDSAP256SHA256,
	}
	secret, err := dnskey.Generate(256)
	if err != nil {
		panic(err)
	}
	signer, _ := secret.(*ecdsa.PrivateKey)
	return &testKey{
		ds:     dnskey.ToDS(dns.SHA256),
		key:    dnskey,
		signer: signer,
	}
}

func (k *testKey) sign(rrset []dns.RR, inception, expiration int64) *dns.RRSIG {
	if inception == 0 {
		inception = time.Now().Add(time.Hour * -24).Unix()
	}
	if expiration == 0 {
		expiration = time.Now().Add(time.Hour * 24).Unix()
	}
	rrsig := &dns.RRSIG{
		Hdr:        dns.RR_Header{},
		Inception:  uint32(inception),
		Expiration: uint32(expiration),
		KeyTag:     k.key.KeyTag(),
		SignerName: k.key.Header().Name,
		Algorithm:  k.key.Algorithm,
	}
	err := rrsig.Sign(k.signer, rrset)
	if err != nil {
		panic(err)
	}
	return rrsig
}

//---

// testChain builds a fully signed delegation chain for the given zone names,
// root first: every zone gets one CSK, a self-signed DNSKEY rrset, and (for
// non-root zones) a DS rrset signed by the parent's key.
type testZone struct {
	name   string
	parent string
	key    *testKey
	data   *analysis.ZoneData
}

func testChain(names ...string) []*testZone {
	zones := make([]*testZone, len(names))

	for i, name := range names {
		z := &testZone{
			name: name,
			key:  testEcKey(name),
		}
		if i > 0 {
			z.parent = names[i-1]
		}
		zones[i] = z

		keyset := []dns.RR{z.key.key}
		z.data = &analysis.ZoneData{
			Name:   name,
			Parent: z.parent,
			DNSKEY: &analysis.RRSet{
				Records:    keyset,
				Signatures: []*dns.RRSIG{z.key.sign(keyset, 0, 0)},
			},
		}

		if i > 0 {
			parent := zones[i-1]
			dsset := []dns.RR{z.key.ds}
			z.data.DS = &analysis.RRSet{
				Records:    dsset,
				Signatures: []*dns.RRSIG{parent.key.sign(dsset, 0, 0)},
			}
		}
	}

	return zones
}

func chainData(zones []*testZone) []*analysis.ZoneData {
	data := make([]*analysis.ZoneData, len(zones))
	for i, z := range zones {
		data[i] = z.data
	}
	return data
}

// anchorsFor builds an AnchorSet holding the given zones' keys in DNSKEY form.
func anchorsFor(zones ...*testZone) *AnchorSet {
	set := newAnchorSet()
	for _, z := range zones {
		set.addKey(z.key.key)
	}
	return set
}

// testStore assembles a store for one A query inside the leaf zone of the
// chain, signed by the leaf zone's key.
func testStore(zones []*testZone, qname string) (*analysis.Store, analysis.QueryKey) {
	leaf := zones[len(zones)-1]

	rrset := []dns.RR{newRR(qname + " 300 IN A 192.0.2.53")}
	key := analysis.QueryKey{Name: qname, Type: dns.TypeA}

	store := &analysis.Store{
		Name: qname,
		Zone: leaf.name,
		Queries: map[analysis.QueryKey]*analysis.QueryData{
			key: {
				Key:        key,
				Records:    rrset,
				Signatures: []*dns.RRSIG{leaf.key.sign(rrset, 0, 0)},
			},
		},
		Chain: chainData(zones),
	}

	return store, key
}
