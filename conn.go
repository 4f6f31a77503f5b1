//go:build linux
// +build linux

package epollweb

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// connState is where a connection is in its request/response exchange.
type connState int

const (
	// stateAwaitingRequest is registered for read readiness.
	stateAwaitingRequest connState = iota
	// stateAwaitingFlush holds a response and is registered for write
	// readiness.
	stateAwaitingFlush
	// stateDone is closed.
	stateDone
)

func (s connState) String() string {
	switch s {
	case stateAwaitingRequest:
		return "awaiting-request"
	case stateAwaitingFlush:
		return "awaiting-flush"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// conn is an accepted client socket. Each conn owns the response it is
// waiting to flush.
type conn struct {
	id      uint64
	fd      int
	remote  string
	state   connState
	pending []byte
}

func newConn(id uint64, fd int, remote string) *conn {
	return &conn{
		id:     id,
		fd:     fd,
		remote: remote,
		state:  stateAwaitingRequest,
	}
}

// read does a single read into buf.
func (c *conn) read(buf []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, errors.Wrap(err, "read")
		}
		return n, nil
	}
}

// respond stores the response to send once the socket is writable.
func (c *conn) respond(b []byte) {
	c.pending = b
	c.state = stateAwaitingFlush
}

// flush writes the pending response until it is drained, the socket would
// block or the write fails. done is false only when the socket would block
// with bytes still pending.
func (c *conn) flush() (done bool, err error) {
	for len(c.pending) > 0 {
		n, err := unix.Write(c.fd, c.pending)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return false, nil
		case err != nil:
			return true, errors.Wrap(err, "write")
		}
		c.pending = c.pending[n:]
	}
	return true, nil
}

// close closes the socket, which also removes it from any epoll set.
func (c *conn) close() error {
	if c.state == stateDone {
		return nil
	}
	c.state = stateDone
	c.pending = nil
	return unix.Close(c.fd)
}
