// Package vqerr defines the error taxonomy described in spec.md section 7:
// recoverable caller errors and fatal protocol-invariant violations. An
// empty dequeue is not an error and has no value here; it is reported as
// linearize.Result.OK == false.
package vqerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfRange is wrapped by OutOfRange. An invocation naming a rank >= N
// is reported to the caller and the operation is never issued; it is
// recoverable.
var ErrOutOfRange = errors.New("vecqueue: rank out of range")

// OutOfRange wraps ErrOutOfRange with the offending rank and process count.
func OutOfRange(rank, n int) error {
	return fmt.Errorf("%w: rank %d, N=%d", ErrOutOfRange, rank, n)
}

// ErrTransportFailure is wrapped by TransportFailure. The core never retries
// a transport failure; escalation policy belongs to the embedder.
var ErrTransportFailure = errors.New("vecqueue: transport failure")

// TransportFailure wraps a lower-level transport error for the caller.
func TransportFailure(cause error) error {
	return fmt.Errorf("%w: %v", ErrTransportFailure, cause)
}

// Invariant is raised when the core detects a violation of one of its own
// protocol invariants: a duplicate-timestamp insertion into a replica, a
// message of unknown kind, or a linearization step that yields an
// unexpected action or never commits. Votes are not checked for malformed
// timestamps, and an already-handled confirmation list is skipped rather
// than reported. It is fatal to the operation that raised it: the driver
// returns it at once and abandons that operation. Nothing records that it
// was raised, so later operations are not refused. It captures a stack
// trace at construction (via
// github.com/pkg/errors) so the embedder's surrounding program has enough
// context to diagnose before terminating, per spec.md section 7.
type Invariant struct {
	cause error
}

// NewInvariant constructs a fatal Invariant error from a message, capturing
// the current stack.
func NewInvariant(format string, args ...any) error {
	return &Invariant{cause: errors.WithStack(fmt.Errorf(format, args...))}
}

func (e *Invariant) Error() string {
	return "protocol invariant violation: " + e.cause.Error()
}

func (e *Invariant) Unwrap() error {
	return e.cause
}

// IsInvariant reports whether err is, or wraps, a fatal Invariant.
func IsInvariant(err error) bool {
	var inv *Invariant
	return errors.As(err, &inv)
}
