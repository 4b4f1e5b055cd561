package media

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("media: record not found")
	ErrFileNotFound  = errors.New("media: file not found")
	ErrInvalidUpload = errors.New("media: invalid upload")
	ErrCodec         = errors.New("media: codec error")
	ErrInvalidTarget = errors.New("target width must be positive")
	ErrPartialDelete = errors.New("media: some files could not be removed")
)

// CodecError wraps any failure to decode, transform or encode an image.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("media: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Is(target error) bool { return target == ErrCodec }

// VariantFailure records one variant that could not be produced.
type VariantFailure struct {
	Name     string
	Optional bool
	Err      error
}

// IncompleteError is returned with a record whose required variants could
// not all be produced. The record itself is stored and usable.
type IncompleteError struct {
	ID       string
	Missing  []string
	Failures []VariantFailure
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("media: record %s is missing variants: %s", e.ID, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
