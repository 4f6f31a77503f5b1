package epollweb

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionNotFound is returned when an event arrives for a token
	// that is not in the connection table.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrUndefinedEvent is returned when the readiness of an event does not
	// match what the connection is waiting for.
	ErrUndefinedEvent = errors.New("undefined event")
)

// EventError is the error returned by a single step of event handling. It
// never stops the event loop.
type EventError struct {
	Token uint64
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *EventError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for errors.Cause.
func (e *EventError) Cause() error {
	return e.Err
}

func eventErr(token uint64, op string, err error) error {
	return &EventError{Token: token, Op: op, Err: err}
}
