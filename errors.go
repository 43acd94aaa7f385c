package dnsgraph

import (
	"errors"
	"fmt"
)

var (
	ErrNoNames             = errors.New("no domain names to graph")
	ErrNamesFileUnreadable = errors.New("unable to read the names file")
)

// A UsageError is a bad combination of command line options. The CLI surfaces
// it with usage text and exit code 1, producing no partial output.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func Usagef(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
