package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput  = errors.New("analysis document is missing a required entry")
	ErrSchema          = errors.New("analysis block has missing or malformed fields")
	ErrEmptyDocument   = errors.New("analysis document is empty")
	ErrDanglingParent  = errors.New("parent reference points at a name not present in the document")
	ErrConflictingDS   = errors.New("a zone cannot carry both ds records and a ds_absent proof")
	ErrUnknownRRType   = errors.New("unknown record type")
	ErrNotASignature   = errors.New("record in a signatures list is not an RRSIG")
	ErrDelegationLoop  = errors.New("delegation chain loops")
	ErrZoneNotAncestor = errors.New("zone is not an ancestor of the queried name")
)

// A FieldError wraps one of the sentinel errors above with the document
// location it was found at.
type FieldError struct {
	Name  string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Name, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(name, field string, err error) *FieldError {
	return &FieldError{Name: name, Field: field, Err: err}
}
