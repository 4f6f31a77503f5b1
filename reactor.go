//go:build linux
// +build linux

package epollweb

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	// listenerToken is reserved for the listening socket.
	listenerToken uint64 = 0
	// wakeToken is reserved for the eventfd used by Stop.
	wakeToken uint64 = math.MaxUint64

	defaultReadBufferSize = 1024
	defaultEventCapacity  = 1024
)

// Reactor is a single threaded event loop that accepts connections, reads
// one request from each, writes the response and closes the connection.
type Reactor struct {
	l       *Listener
	h       Handler
	poller  *Poller
	conns   *connTable
	log     logrus.FieldLogger
	readBuf []byte
	wakeFd  int
	stopped int32

	nextID      uint64
	readBufSize int
	eventCap    int
}

// New creates a Reactor that serves connections from l with h. The Reactor
// owns l and closes it in Close.
func New(l *Listener, h Handler, opts ...Option) (*Reactor, error) {
	r := &Reactor{
		l:           l,
		h:           h,
		log:         logrus.StandardLogger(),
		wakeFd:      -1,
		nextID:      1,
		readBufSize: defaultReadBufferSize,
		eventCap:    defaultEventCapacity,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	p, err := NewPoller(r.eventCap)
	if err != nil {
		return nil, err
	}
	if err := p.Register(l.Fd(), listenerToken, Readable); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "failed to register listener")
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		p.Close()
		return nil, errors.Wrap(err, "eventfd")
	}
	if err := p.Register(wakeFd, wakeToken, Readable); err != nil {
		unix.Close(wakeFd)
		p.Close()
		return nil, errors.Wrap(err, "failed to register eventfd")
	}

	r.poller = p
	r.wakeFd = wakeFd
	r.conns = newConnTable(r.log)
	r.readBuf = make([]byte, r.readBufSize)
	return r, nil
}

// Addr returns the listening address.
func (r *Reactor) Addr() string {
	return r.l.Addr().String()
}

// Run runs the event loop until Stop is called. Errors while waiting or
// handling an event are logged and the loop continues.
func (r *Reactor) Run() error {
	for {
		if r.poll() {
			return nil
		}
	}
}

// poll waits once and handles every ready event. It returns true once Stop
// has been called.
func (r *Reactor) poll() bool {
	events, err := r.poller.Wait(-1)
	if err != nil {
		r.handleErr(err)
		return false
	}
	for _, ev := range events {
		switch ev.Token() {
		case wakeToken:
			if r.woken() {
				return true
			}
		case listenerToken:
			r.handleErr(r.accept())
		default:
			r.handleErr(r.dispatch(ev))
		}
	}
	return false
}

// Stop makes Run return. It is safe to call from any goroutine, including
// before Run is called.
func (r *Reactor) Stop() error {
	atomic.StoreInt32(&r.stopped, 1)
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(r.wakeFd, b[:]); err != nil && err != unix.EAGAIN {
		return errors.Wrap(err, "failed to wake event loop")
	}
	return nil
}

// Close closes every connection, the poller and the listener. It must not
// be called while Run is running.
func (r *Reactor) Close() error {
	r.conns.closeAll()
	// Everything is closed even if an earlier close fails, the first
	// failure is returned.
	var err error
	if cerr := unix.Close(r.wakeFd); cerr != nil {
		err = errors.Wrap(cerr, "failed to close eventfd")
	}
	if cerr := r.poller.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "failed to close poller")
	}
	if cerr := r.l.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "failed to close listener")
	}
	return err
}

// woken drains the eventfd and reports if Stop was called.
func (r *Reactor) woken() bool {
	var b [8]byte
	if _, err := unix.Read(r.wakeFd, b[:]); err != nil && err != unix.EAGAIN {
		r.handleErr(errors.Wrap(err, "failed to drain eventfd"))
	}
	return atomic.LoadInt32(&r.stopped) == 1
}

// accept accepts one pending connection and registers it for reads.
func (r *Reactor) accept() error {
	fd, remote, err := r.l.Accept()
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil
		}
		return eventErr(listenerToken, "accept", err)
	}

	// The id is used even if registration fails.
	id := r.nextID
	r.nextID++

	if err := r.poller.Register(fd, id, Readable); err != nil {
		unix.Close(fd)
		return eventErr(id, "register", err)
	}
	r.conns.insert(newConn(id, fd, remote))
	r.log.WithFields(logrus.Fields{"token": id, "remote": remote}).Debug("connection accepted")
	return nil
}

// dispatch handles a readiness event for an accepted connection based on
// the state of the connection.
func (r *Reactor) dispatch(ev Event) error {
	c, err := r.conns.get(ev.Token())
	if err != nil {
		return eventErr(ev.Token(), "lookup", err)
	}

	switch c.state {
	case stateAwaitingRequest:
		// A hang up or error is surfaced by the read.
		if ev.Readable() || ev.Closed() || ev.Errored() {
			return r.onReadable(c)
		}
	case stateAwaitingFlush:
		if ev.Writable() || ev.Closed() || ev.Errored() {
			return r.onWritable(c)
		}
	}
	return eventErr(c.id, "dispatch", errors.Wrapf(
		ErrUndefinedEvent, "events %#x in state %s", ev.Flags(), c.state))
}

func (r *Reactor) onReadable(c *conn) error {
	n, err := c.read(r.readBuf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil
		}
		r.conns.remove(c.id)
		return eventErr(c.id, "read", err)
	}
	if n == 0 {
		r.conns.remove(c.id)
		r.log.WithField("token", c.id).Debug("connection closed by peer")
		return nil
	}

	b, err := r.h.Serve(r.readBuf[:n])
	if err != nil {
		r.conns.remove(c.id)
		return eventErr(c.id, "serve", err)
	}
	c.respond(b)
	if err := r.poller.Reregister(c.fd, c.id, Writable); err != nil {
		r.conns.remove(c.id)
		return eventErr(c.id, "reregister", err)
	}
	return nil
}

func (r *Reactor) onWritable(c *conn) error {
	done, err := c.flush()
	if !done {
		return nil
	}
	r.conns.remove(c.id)
	if err != nil {
		return eventErr(c.id, "write", err)
	}
	r.log.WithField("token", c.id).Debug("response sent")
	return nil
}

// handleErr is the single place per event errors end up.
func (r *Reactor) handleErr(err error) {
	if err == nil {
		return
	}
	log := r.log
	var evErr *EventError
	if errors.As(err, &evErr) {
		log = log.WithFields(logrus.Fields{"token": evErr.Token, "op": evErr.Op})
	}
	switch {
	case errors.Is(err, unix.EINTR):
		log.WithError(err).Debug("interrupted")
	case errors.Is(err, ErrConnectionNotFound), errors.Is(err, ErrUndefinedEvent):
		log.WithError(err).Warn("event ignored")
	default:
		log.WithError(err).Error("event failed")
	}
}
