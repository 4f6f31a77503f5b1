//go:build linux
// +build linux

package epollweb

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SOReuseport is the socket option to reuse the listening port.
const SOReuseport = unix.SO_REUSEPORT

// Listener is a non-blocking TCP listening socket.
type Listener struct {
	fd   int
	addr *net.TCPAddr
}

// Listen binds a non-blocking listening socket to a host:port address.
// Sockopts are SOL_SOCKET options that are enabled before bind.
func Listen(address string, sockopts ...int) (*Listener, error) {
	// ResolveTCPAddr treats "" as the wildcard address on a random port.
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	if port == "" {
		return nil, errors.Errorf("invalid address %q: missing port", address)
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}

	var (
		family int
		sa     unix.Sockaddr
	)
	if ip4 := tcpAddr.IP.To4(); ip4 != nil || tcpAddr.IP == nil {
		family = unix.AF_INET
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		family = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		sa = sa6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, errors.Wrap(err, "could not open socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "setsockopt SO_REUSEADDR")
	}
	for _, sockopt := range sockopts {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, sockopt, 1); err != nil {
			unix.Close(fd)
			return nil, errors.Wrapf(err, "setsockopt %#x", sockopt)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "bind %s", address)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "listen %s", address)
	}

	// The bound address differs from the requested one when port 0 is used.
	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "getsockname")
	}
	return &Listener{fd: fd, addr: tcpAddr4or6(bound)}, nil
}

// Accept accepts one pending connection. The returned fd is non-blocking.
// When nothing is pending the error wraps unix.EAGAIN.
func (l *Listener) Accept() (int, string, error) {
	fd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, "", errors.Wrap(err, "accept4")
	}
	remote := "unknown"
	if a := tcpAddr4or6(sa); a != nil {
		remote = a.String()
	}
	return fd, remote, nil
}

// Fd returns the listening socket.
func (l *Listener) Fd() int {
	return l.fd
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

func tcpAddr4or6(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	}
	return nil
}
