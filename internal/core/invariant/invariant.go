// Package invariant carries the fatal error class of the simulation: broken
// invariants and legacy branches that have no implementation. These are
// raised as panics deep inside a tick and recovered once, at the tick
// boundary, by the driver.
package invariant

import (
	"errors"
	"fmt"
)

// ErrNotImplemented marks a legacy branch whose behaviour is not reproduced.
var ErrNotImplemented = errors.New("not implemented")

// Error is the panic value for an invariant violation.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violation: %s: %v", e.Msg, e.Err)
	}
	return "invariant violation: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Fatalf aborts the current tick.
func Fatalf(format string, args ...any) {
	panic(&Error{Msg: fmt.Sprintf(format, args...)})
}

// NotImplemented aborts the current tick at a legacy branch named name.
func NotImplemented(name string) {
	panic(&Error{Msg: name, Err: ErrNotImplemented})
}

// Recover converts a recovered panic value back into an error. Values that
// are not invariant errors are re-panicked.
func Recover(r any) error {
	if r == nil {
		return nil
	}
	if e, ok := r.(*Error); ok {
		return e
	}
	panic(r)
}
