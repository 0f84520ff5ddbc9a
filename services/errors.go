package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	// KindUpstream covers provider, vector store, storage and decoding failures.
	KindUpstream Kind = iota
	// KindInvalidInput covers bad files and bad request parameters.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "upstream"
	}
}

// Error is the result type every pipeline operation fails with.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors that are not *Error count as upstream.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}

func invalidInput(op, format string, args ...any) error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

func upstream(op string, err error) error {
	return &Error{Op: op, Kind: KindUpstream, Err: err}
}
