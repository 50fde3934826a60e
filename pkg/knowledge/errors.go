package knowledge

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("knowledge source not found")
	ErrMalformed   = errors.New("knowledge source is malformed")
	ErrEmpty       = errors.New("knowledge source has no records")
	ErrInvalidItem = errors.New("invalid knowledge record")
)

// LoadError is returned when the knowledge source cannot be turned into a Base.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading knowledge base %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
