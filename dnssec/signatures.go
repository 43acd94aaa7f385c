package dnssec

import (
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// SignatureResult records the outcome of checking one RRSIG against the keys
// of the zone it claims to be signed by.
type SignatureResult struct {
	RRSIG *dns.RRSIG

	// Key is the zone key that verified the signature, nil when none did.
	Key *dns.DNSKEY

	// Wildcard is set when the covered rrset was synthesised from a wildcard
	// (the owner name has more labels than the rrsig labels field).
	Wildcard bool

	Status Status
	Err    error
}

// Signer identifies the key the signature claims to be made by: the verified
// key when one was found, otherwise the rrsig's own signer name and key tag.
// A failed signature still names its signer, so it can be drawn against it.
func (s *SignatureResult) Signer() (name string, keyTag uint16, ok bool) {
	if s.Key != nil {
		return s.Key.Header().Name, s.Key.KeyTag(), true
	}
	if s.RRSIG != nil {
		return s.RRSIG.SignerName, s.RRSIG.KeyTag, true
	}
	return "", 0, false
}

// checkSignature verifies one rrsig over rrset using the given zone keys.
// The checks mirror RFC 4035 §5.3: the signer name must match the zone, the
// labels field must not exceed the owner's label count, the validity period
// must cover now, and at least one key with a matching algorithm, key tag and
// owner must cryptographically verify the set.
//
// A cryptographic failure yields Bogus. A structurally sound signature with
// no matching key yields Indeterminate: we cannot decide either way. The
// returned status is the signature's own; the caller folds in the zone's
// chain status.
func checkSignature(zone string, rrsig *dns.RRSIG, rrset []dns.RR, keys []*dns.DNSKEY, now time.Time) *SignatureResult {
	sig := &SignatureResult{RRSIG: rrsig}

	if !namesEqual(zone, rrsig.SignerName) {
		sig.Status = Bogus
		sig.Err = fmt.Errorf("%w: zone:[%s] SignerName:[%s]", ErrSignerNameMismatch, zone, rrsig.SignerName)
		return sig
	}

	if dns.CountLabel(rrsig.Header().Name) < int(rrsig.Labels) {
		sig.Status = Bogus
		sig.Err = fmt.Errorf("%w: owner name has %d labels and the rrsig labels field is %d", ErrInvalidLabelCount, dns.CountLabel(rrsig.Header().Name), rrsig.Labels)
		return sig
	}

	if !rrsig.ValidityPeriod(now) {
		sig.Status = Bogus
		sig.Err = fmt.Errorf("%w: valid %s to %s", ErrInvalidTime, dns.TimeToString(rrsig.Inception), dns.TimeToString(rrsig.Expiration))
		return sig
	}

	if dns.CountLabel(rrsig.Header().Name) > int(rrsig.Labels) {
		sig.Wildcard = true
	}

	// https://datatracker.ietf.org/doc/html/rfc4035#section-5.3.1
	// More than one DNSKEY can match on owner, algorithm and key tag; each
	// candidate must be tried until one verifies or all have failed.
	matched := false
	for _, key := range keys {
		if key.Algorithm != rrsig.Algorithm || key.KeyTag() != rrsig.KeyTag || !namesEqual(key.Header().Name, rrsig.SignerName) {
			continue
		}
		matched = true

		if err := rrsig.Verify(key, rrset); err != nil {
			sig.Err = fmt.Errorf("%w: %w", ErrInvalidSignature, err)
			continue
		}

		sig.Key = key
		sig.Status = Secure
		sig.Err = nil
		return sig
	}

	if !matched {
		sig.Status = Indeterminate
		sig.Err = fmt.Errorf("%w: key tag %d", ErrNoKeyFoundForSignature, rrsig.KeyTag)
		return sig
	}

	sig.Status = Bogus
	return sig
}

// checkSignatures runs checkSignature over every rrsig covering a set.
func checkSignatures(zone string, rrsigs []*dns.RRSIG, rrset []dns.RR, keys []*dns.DNSKEY, now time.Time) []*SignatureResult {
	results := make([]*SignatureResult, 0, len(rrsigs))
	for _, rrsig := range rrsigs {
		results = append(results, checkSignature(zone, rrsig, rrset, keys, now))
	}
	return results
}

// setStatus folds a set of signature outcomes into one status for the covered
// rrset. Bogus takes precedence: a single cryptographic failure marks the set
// bogus even when a valid alternate signature exists. Otherwise one secure
// signature is enough.
func setStatus(sigs []*SignatureResult) Status {
	if len(sigs) == 0 {
		return Indeterminate
	}

	status := Indeterminate
	for _, sig := range sigs {
		if sig.Status == Bogus {
			return Bogus
		}
		if sig.Status == Secure {
			status = Secure
		}
	}
	return status
}

func namesEqual(s1, s2 string) bool {
	return dns.CanonicalName(s1) == dns.CanonicalName(s2)
}
