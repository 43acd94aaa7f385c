package render

import (
	"errors"
	"fmt"
)

var (
	ErrGraphvizFailed = errors.New("graphviz rendering failed")
	ErrNilGraph       = errors.New("cannot render a nil graph")
)

// An UnsupportedFormatError reports an output format outside the known set.
// It is raised at entry, before any graph work is attempted.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format: %q", e.Format)
}
