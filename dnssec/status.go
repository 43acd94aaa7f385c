package dnssec

// Status is a DNSSEC validation verdict. The zero value is Indeterminate:
// data nobody has proved anything about yet.
type Status uint8

const (
	// Indeterminate: no chain of trust reaches the data, and nothing proves
	// the absence of one.
	Indeterminate Status = iota

	// Insecure: a parent zone provably attests that the delegation is
	// unsigned.
	Insecure

	// Secure: an unbroken chain of valid signatures and matching delegation
	// signers connects the data to a trust anchor.
	Secure

	// Bogus: a chain exists but something in it fails cryptographic
	// verification.
	Bogus
)

func (s Status) String() string {
	switch s {
	case Secure:
		return "secure"
	case Insecure:
		return "insecure"
	case Bogus:
		return "bogus"
	default:
		return "indeterminate"
	}
}

// Combine folds two statuses into the status of anything depending on both.
// Bogus dominates everything, insecure dominates indeterminate, and only two
// secure inputs stay secure. Combine is commutative and associative, and
// Secure is its identity, so a chain's status can be folded in any order.
func Combine(a, b Status) Status {
	if a == Bogus || b == Bogus {
		return Bogus
	}
	if a == Insecure || b == Insecure {
		return Insecure
	}
	if a == Indeterminate || b == Indeterminate {
		return Indeterminate
	}
	return Secure
}
