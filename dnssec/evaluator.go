// Package dnssec decides validation statuses for collected DNSSEC data. The
// Evaluator walks one name's delegation chain from the root zone down,
// checking at each cut that the parent's DS records match a child key and
// that the child's DNSKEY rrset verifies under it, then judges each queried
// record set against its zone's keys. All decisions are relative to a trust
// anchor set; nothing here touches the network.
package dnssec

import (
	"fmt"
	"time"

	"github.com/dnsgraph/dnsgraph/analysis"
	"github.com/miekg/dns"
)

// Evaluator computes validation statuses for analysis stores against one
// trust anchor set. Results are never cached: a new anchor set needs a new
// Evaluator and a fresh Evaluate call.
type Evaluator struct {
	anchors *AnchorSet
	now     func() time.Time
	funcs   evaluatorFunctions
}

// The core evaluation functions. They're defined as variables to aid
// overriding them for testing.
type evaluatorFunctions struct {
	evaluateZone  func(zone *analysis.ZoneData, parent *ZoneResult) *ZoneResult
	evaluateQuery func(ev *Evaluation, q *analysis.QueryData) *QueryResult
}

func NewEvaluator(anchors *AnchorSet) *Evaluator {
	e := &Evaluator{
		anchors: anchors,
		now:     time.Now,
	}
	e.funcs = evaluatorFunctions{
		evaluateZone:  e.evaluateZone,
		evaluateQuery: e.evaluateQuery,
	}
	return e
}

// Anchors returns the trust anchor set this evaluator judges against.
func (e *Evaluator) Anchors() *AnchorSet {
	return e.anchors
}

// Evaluation holds every status the evaluator derived for one store.
type Evaluation struct {
	Store   *analysis.Store
	Zones   map[string]*ZoneResult
	Queries map[analysis.QueryKey]*QueryResult
}

// ZoneResult is the outcome for one zone in the delegation chain.
type ZoneResult struct {
	Name   string
	Parent string

	Status Status
	Err    error

	// Keys is the zone's apex DNSKEY rrset.
	Keys []*dns.DNSKEY
	// KeySigs are the outcomes for the signatures over the DNSKEY rrset.
	KeySigs []*SignatureResult

	// DS holds the delegation-signer records the parent served, DSSigs the
	// outcomes for their covering signatures (made by the parent's keys),
	// and DSStatus the folded status of the DS rrset itself.
	DS       []*dns.DS
	DSSigs   []*SignatureResult
	DSStatus Status
	DSAbsent bool

	// SEPs are the zone keys with a matching parent DS record. Anchored are
	// the zone keys directly covered by a trust anchor.
	SEPs     []*dns.DNSKEY
	Anchored []*dns.DNSKEY
}

// QueryResult is the outcome for one queried record set.
type QueryResult struct {
	Key        analysis.QueryKey
	Status     Status
	Err        error
	Signatures []*SignatureResult
}

// Evaluate walks the store's delegation chain root-first and then judges
// every query key. Evaluation is deterministic: identical inputs always
// produce identical statuses.
func (e *Evaluator) Evaluate(store *analysis.Store) (*Evaluation, error) {
	if len(store.Chain) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrZoneNotInChain, store.Zone)
	}

	ev := &Evaluation{
		Store:   store,
		Zones:   make(map[string]*ZoneResult, len(store.Chain)),
		Queries: make(map[analysis.QueryKey]*QueryResult, len(store.Queries)),
	}

	var parent *ZoneResult
	for _, zone := range store.Chain {
		zr := e.funcs.evaluateZone(zone, parent)
		ev.Zones[dns.CanonicalName(zone.Name)] = zr
		Debug(fmt.Sprintf("zone %s: %s", zr.Name, zr.Status))
		parent = zr
	}

	for _, key := range store.QueryKeys() {
		qr := e.funcs.evaluateQuery(ev, store.Query(key))
		ev.Queries[key] = qr
		Debug(fmt.Sprintf("query %s: %s", key, qr.Status))
	}

	return ev, nil
}

// Zone returns the result for the named zone, or nil.
func (ev *Evaluation) Zone(name string) *ZoneResult {
	return ev.Zones[dns.CanonicalName(name)]
}

// ChainResults returns the per-zone results in chain order, root first.
func (ev *Evaluation) ChainResults() []*ZoneResult {
	results := make([]*ZoneResult, 0, len(ev.Store.Chain))
	for _, zone := range ev.Store.Chain {
		results = append(results, ev.Zone(zone.Name))
	}
	return results
}

func (e *Evaluator) evaluateZone(zone *analysis.ZoneData, parent *ZoneResult) *ZoneResult {
	zr := &ZoneResult{
		Name:     dns.CanonicalName(zone.Name),
		Parent:   dns.CanonicalName(zone.Parent),
		Keys:     zone.Keys(),
		DS:       zone.DSRecords(),
		DSAbsent: zone.DSAbsent,
		DSStatus: Indeterminate,
	}
	if zone.Parent == "" {
		zr.Parent = ""
	}

	if zone.DNSKEY != nil {
		zr.KeySigs = checkSignatures(zr.Name, zone.DNSKEY.Signatures, zone.DNSKEY.Records, zr.Keys, e.now())
	}

	if parent != nil && zone.DS != nil && len(zr.DS) > 0 {
		zr.DSSigs = checkSignatures(parent.Name, zone.DS.Signatures, zone.DS.Records, parent.Keys, e.now())
		zr.DSStatus = Combine(parent.Status, setStatus(zr.DSSigs))
	}

	zr.Anchored = anchorKeys(e.anchors, zr.Keys)
	zr.SEPs = keySigningKeys(zr.DS, zr.Keys)

	zr.Status, zr.Err = zoneStatus(zr, parent)
	return zr
}

// zoneStatus applies the precedence rule to one zone: bogus on any
// cryptographic failure, secure only via a fully valid path to an anchor,
// insecure when the parent attests the zone unsigned, else indeterminate.
func zoneStatus(zr *ZoneResult, parent *ZoneResult) (Status, error) {
	if len(zr.Keys) == 0 {
		if parent != nil && parent.Status == Secure && zr.DSAbsent {
			return Insecure, nil
		}
		if parent != nil && parent.Status == Insecure {
			return Insecure, nil
		}
		return Indeterminate, ErrKeysNotFound
	}

	// A trust anchor directly at this zone forms its own chain, regardless
	// of what the parent looks like.
	if len(zr.Anchored) > 0 {
		if sigBogusSeen(zr.KeySigs) {
			return Bogus, fmt.Errorf("%w: %s", ErrVerifyFailed, zr.Name)
		}
		if sigSecureByOneOf(zr.KeySigs, zr.Anchored) {
			return Secure, nil
		}
		return Bogus, fmt.Errorf("%w: %s", ErrAnchorMatchButInvalidSig, zr.Name)
	}

	if parent == nil {
		// Chain root with no anchor covering it: nothing can be proved.
		return Indeterminate, nil
	}

	switch parent.Status {
	case Bogus:
		return Bogus, nil
	case Insecure:
		return Insecure, nil
	case Indeterminate:
		if sigBogusSeen(zr.KeySigs) {
			return Bogus, fmt.Errorf("%w: %s", ErrVerifyFailed, zr.Name)
		}
		return Indeterminate, nil
	}

	// Parent is secure: the zone cut decides.

	if zr.DSAbsent {
		return Insecure, nil
	}

	if len(zr.DS) == 0 {
		return Indeterminate, ErrNoDSRecords
	}

	switch zr.DSStatus {
	case Bogus:
		return Bogus, fmt.Errorf("%w: ds rrset for %s", ErrVerifyFailed, zr.Name)
	case Insecure, Indeterminate:
		return Indeterminate, nil
	}

	if len(zr.SEPs) == 0 {
		return Bogus, fmt.Errorf("%w: %s", ErrDSDigestMismatch, zr.Name)
	}

	if len(zr.KeySigs) == 0 {
		return Bogus, fmt.Errorf("%w: dnskey rrset for %s", ErrSignatureSetEmpty, zr.Name)
	}

	if sigBogusSeen(zr.KeySigs) {
		return Bogus, fmt.Errorf("%w: dnskey rrset for %s", ErrVerifyFailed, zr.Name)
	}

	if sigSecureByOneOf(zr.KeySigs, zr.SEPs) {
		return Secure, nil
	}

	return Bogus, fmt.Errorf("%w: %s", ErrKeySigningKeysNotFound, zr.Name)
}

func (e *Evaluator) evaluateQuery(ev *Evaluation, q *analysis.QueryData) *QueryResult {
	qr := &QueryResult{Key: q.Key}

	zone := ev.Zone(ev.Store.Zone)
	if zone == nil {
		qr.Status = Indeterminate
		qr.Err = fmt.Errorf("%w: %s", ErrZoneNotInChain, ev.Store.Zone)
		return qr
	}

	if q.Negative() {
		// Only negative-response markers were collected; there is nothing to
		// verify, so the zone's own status caps what we can say.
		qr.Status = Combine(zone.Status, Indeterminate)
		return qr
	}

	qr.Signatures = checkSignatures(zone.Name, q.Signatures, q.Records, zone.Keys, e.now())

	if len(qr.Signatures) == 0 {
		// A record set inside a provably signed zone must carry signatures.
		if zone.Status == Secure {
			qr.Status = Bogus
			qr.Err = fmt.Errorf("%w: %s", ErrUnsignedInSignedZone, q.Key)
			return qr
		}
		qr.Status = Combine(zone.Status, Indeterminate)
		return qr
	}

	qr.Status = Combine(zone.Status, setStatus(qr.Signatures))
	return qr
}

func sigBogusSeen(sigs []*SignatureResult) bool {
	for _, sig := range sigs {
		if sig.Status == Bogus {
			return true
		}
	}
	return false
}

func sigSecureByOneOf(sigs []*SignatureResult, keys []*dns.DNSKEY) bool {
	for _, sig := range sigs {
		if sig.Status != Secure || sig.Key == nil {
			continue
		}
		for _, key := range keys {
			if sig.Key == key {
				return true
			}
		}
	}
	return false
}
