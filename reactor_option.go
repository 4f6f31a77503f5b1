//go:build linux
// +build linux

package epollweb

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Option is an option for configuring a Reactor.
type Option func(*Reactor) error

// WithLogger is used to set the logger for the Reactor.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Reactor) error {
		if log == nil {
			return errors.New("nil logger")
		}
		r.log = log
		return nil
	}
}

// WithReadBufferSize sets how many bytes are read from a connection per
// read readiness event. A request line longer than this is not seen.
func WithReadBufferSize(n int) Option {
	return func(r *Reactor) error {
		if n <= 0 {
			return errors.Errorf("invalid read buffer size: %d", n)
		}
		r.readBufSize = n
		return nil
	}
}

// WithEventCapacity sets the maximum number of events handled per wait.
func WithEventCapacity(n int) Option {
	return func(r *Reactor) error {
		if n <= 0 {
			return errors.Errorf("invalid event capacity: %d", n)
		}
		r.eventCap = n
		return nil
	}
}

// WithFirstID is used to set the starting id for the monotonically
// increasing connection ids.
func WithFirstID(id uint64) Option {
	return func(r *Reactor) error {
		if id == listenerToken || id == wakeToken {
			return errors.Errorf("reserved connection id: %d", id)
		}
		r.nextID = id
		return nil
	}
}
