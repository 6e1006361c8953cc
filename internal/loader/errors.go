package loader

import (
	"errors"
	"fmt"
)

// ErrNoSource is returned when Load is called with an empty source
var ErrNoSource = errors.New("no dataset source")

// Load stages
const (
	OpFetch    = "fetch"
	OpDecode   = "decode"
	OpValidate = "validate"
)

// LoadError describes a failed topology load
type LoadError struct {
	Source string
	Op     string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
