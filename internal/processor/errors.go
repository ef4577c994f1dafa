package processor

import (
	"errors"
	"fmt"
)

// Kind classifies a processing failure so callers can branch on it instead
// of matching error strings.
type Kind int

const (
	// KindValidation — the order itself is broken. Terminal, never retried.
	KindValidation Kind = iota + 1
	// KindDependency — the tick source failed. The order stays processing.
	KindDependency
	// KindStore — a claim or finalize write failed.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDependency:
		return "dependency"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind; zero when err is not a processor error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
