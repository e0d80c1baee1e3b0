// Package fault classifies the failures of the load, train and export pipeline.
//
// Every failure the pipeline returns is one of three kinds: a protocol error
// (the external process sent something that could not be parsed), a
// precondition violation (the request cannot be honoured in the current state)
// or a lookup failure (a named model or dataset does not exist). None of them
// are retried; the caller must re-issue the whole request.
package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the class of a failure.
type Kind uint8

const (
	// Protocol indicates a malformed or truncated token stream.
	Protocol Kind = iota + 1
	// Precondition indicates a request that is invalid in the current state.
	Precondition
	// Lookup indicates a missing model or dataset.
	Lookup
)

func (k Kind) String() string {
	switch k {
	case Protocol:
		return "protocol error"
	case Precondition:
		return "precondition violation"
	case Lookup:
		return "lookup failure"
	}
	return "unknown failure"
}

// Error is a classified failure of a single operation.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "train" or "stream.read".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Cause satisfies github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.Err }

// New creates a classified error with a stack attached to the message.
func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(message)}
}

// Errorf creates a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// Is reports whether any error in err's chain is a fault of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the outermost fault in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
