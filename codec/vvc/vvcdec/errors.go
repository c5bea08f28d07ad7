/*
DESCRIPTION
  errors.go provides the abstract error kinds the core raises and their
  propagation helpers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vvcdec

import "fmt"

// ErrorKind is one of the abstract error kinds a decode operation can
// fail with.
type ErrorKind int

const (
	// ErrInvalidBitstream: syntax element out of legal range, merge list
	// underrun, palette size overflow, IBC BV crossing CTB row, etc.
	ErrInvalidBitstream ErrorKind = iota

	// ErrUnsupportedFeature: valid syntax but the core rejects it.
	ErrUnsupportedFeature

	// ErrMissingReference: RPL refers to an unavailable POC.
	ErrMissingReference

	// ErrOutOfMemory: sample or coefficient buffer allocation failure.
	ErrOutOfMemory

	// ErrInternal: invariant violation; the decoder must abort.
	ErrInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidBitstream:
		return "invalid bitstream"
	case ErrUnsupportedFeature:
		return "unsupported feature"
	case ErrMissingReference:
		return "missing reference"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error kind"
	}
}

// Error implements error so a bare ErrorKind can be the target of errors.Is.
func (k ErrorKind) Error() string { return k.String() }

// Error is the core's typed error, pairing an abstract kind (for
// programmatic dispatch by the slice driver) with a wrapped cause carrying
// call-site context via github.com/pkg/errors.
type Error struct {
	Kind  ErrorKind
	cause error
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("vvcdec: %s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is supports errors.Is(err, ErrInvalidBitstream)-style kind comparisons by
// treating a bare ErrorKind as comparable against *Error.Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// classifyMissingRef runs the inverse of MissingReference classification:
// a MissingReference error is downgraded to InvalidBitstream unless the
// slice allows missing references.
func classifyMissingRef(err error, allowMissingRef bool) error {
	if allowMissingRef {
		return err
	}
	if e, ok := err.(*Error); ok && e.Kind == ErrMissingReference {
		return newError(ErrInvalidBitstream, e.cause)
	}
	return err
}
