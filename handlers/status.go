package handlers

import (
	"github.com/wippyai/msg-runtime/errors"
)

// Status is the outcome of a traversal, handed to EndMessage and returned to
// the caller.
type Status struct {
	err     error
	aborted bool
}

// OK reports whether the traversal visited every field and no error was recorded.
func (s *Status) OK() bool {
	return !s.aborted && s.err == nil
}

// Aborted reports whether the traversal stopped early.
func (s *Status) Aborted() bool {
	return s.aborted
}

// Err returns the recorded error. An abort with no recorded cause reports a
// KindAborted error.
func (s *Status) Err() error {
	if s.err != nil {
		return s.err
	}
	if s.aborted {
		return errors.Aborted(errors.PhaseDispatch, "handler returned abort")
	}
	return nil
}

// SetError records err as the traversal's cause of failure. Consumers use it
// from EndMessage (or from their own state) to report why they aborted.
// The first recorded error wins.
func (s *Status) SetError(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Status) reset() {
	s.err = nil
	s.aborted = false
}
