//go:build linux
// +build linux

package epollweb

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Interest is the set of readiness a file descriptor is registered for.
type Interest uint32

const (
	// Readable registers for read readiness and peer shutdown.
	Readable Interest = unix.EPOLLIN | unix.EPOLLRDHUP
	// Writable registers for write readiness only.
	Writable Interest = unix.EPOLLOUT
)

// Event is a readiness notification returned by Wait.
type Event struct {
	token uint64
	flags uint32
}

// Token returns the token the file descriptor was registered with.
func (e Event) Token() uint64 {
	return e.token
}

// Flags returns the raw epoll event mask.
func (e Event) Flags() uint32 {
	return e.flags
}

// Readable returns true if the fd can be read without blocking.
func (e Event) Readable() bool {
	return e.flags&(unix.EPOLLIN|unix.EPOLLPRI) != 0
}

// Writable returns true if the fd can be written without blocking.
func (e Event) Writable() bool {
	return e.flags&unix.EPOLLOUT != 0
}

// Closed returns true if the peer hung up either direction.
func (e Event) Closed() bool {
	return e.flags&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0
}

// Errored returns true if an error is pending on the fd.
func (e Event) Errored() bool {
	return e.flags&unix.EPOLLERR != 0
}

// Poller is a level triggered epoll instance.
type Poller struct {
	fd     int
	events []unix.EpollEvent
	ready  []Event
}

// NewPoller creates a Poller that returns at most capacity events per Wait.
func NewPoller(capacity int) (*Poller, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("invalid event capacity: %d", capacity)
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_create1")
	}
	return &Poller{
		fd:     fd,
		events: make([]unix.EpollEvent, capacity),
		ready:  make([]Event, 0, capacity),
	}, nil
}

// Register adds fd to the poller.
func (p *Poller) Register(fd int, token uint64, interest Interest) error {
	ev := epollEvent(token, interest)
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return errors.Wrapf(err, "register fd %d", fd)
	}
	return nil
}

// Reregister replaces the token and interest of an already registered fd.
func (p *Poller) Reregister(fd int, token uint64, interest Interest) error {
	ev := epollEvent(token, interest)
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return errors.Wrapf(err, "reregister fd %d", fd)
	}
	return nil
}

// Deregister removes fd from the poller.
func (p *Poller) Deregister(fd int) error {
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return errors.Wrapf(err, "deregister fd %d", fd)
	}
	return nil
}

// Wait blocks until at least one fd is ready or msec elapses, a negative
// msec waits forever. The returned events are only valid until the next
// call to Wait.
func (p *Poller) Wait(msec int) ([]Event, error) {
	n, err := unix.EpollWait(p.fd, p.events, msec)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_wait")
	}
	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		p.ready = append(p.ready, Event{
			token: eventToken(&p.events[i]),
			flags: p.events[i].Events,
		})
	}
	return p.ready, nil
}

// Close closes the epoll fd.
func (p *Poller) Close() error {
	return unix.Close(p.fd)
}

// The token is stored in the 64 bit epoll_data union which x/sys exposes
// as the Fd and Pad fields.
func epollEvent(token uint64, interest Interest) unix.EpollEvent {
	return unix.EpollEvent{
		Events: uint32(interest),
		Fd:     int32(uint32(token)),
		Pad:    int32(uint32(token >> 32)),
	}
}

func eventToken(ev *unix.EpollEvent) uint64 {
	return uint64(uint32(ev.Fd)) | uint64(uint32(ev.Pad))<<32
}
