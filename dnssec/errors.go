package dnssec

import (
	"errors"
	"fmt"
)

var (
	ErrKeysNotFound             = errors.New("no dnskey records found for zone")
	ErrKeySigningKeysNotFound   = errors.New("no dnskey records found that match the parent ds records")
	ErrSignerNameMismatch       = errors.New("signer name does not match the zone's origin")
	ErrVerifyFailed             = errors.New("signature verification failed")
	ErrNotAnAnchor              = errors.New("record type cannot serve as a trust anchor")
	ErrNoKeyFoundForSignature   = errors.New("no key found for signature")
	ErrInvalidTime              = errors.New("current time is outside of the signature validity period")
	ErrInvalidSignature         = errors.New("signature is invalid")
	ErrInvalidLabelCount        = errors.New("owner name has fewer labels than the rrsig labels field")
	ErrSignatureSetEmpty        = errors.New("no signatures cover the record set")
	ErrNoDSRecords              = errors.New("no ds records and no proof of their absence")
	ErrDSDigestMismatch         = errors.New("no ds record digest matches a zone key")
	ErrZoneNotInChain           = errors.New("zone is not part of the store's delegation chain")
	ErrUnsignedInSignedZone     = errors.New("record set in a signed zone carries no signatures")
	ErrAnchorMatchButInvalidSig = errors.New("a trust anchor matches a zone key but the dnskey rrset does not verify")
)

// A KeyParseError reports malformed trust anchor text.
type KeyParseError struct {
	Line int
	Err  error
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("trust anchor line %d: %s", e.Line, e.Err)
}

func (e *KeyParseError) Unwrap() error {
	return e.Err
}
