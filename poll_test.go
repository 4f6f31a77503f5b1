//go:build linux
// +build linux

package epollweb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (int, int) {
	t.Helper()
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerReadable(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	rfd, wfd := newPipe(t)
	require.NoError(t, p.Register(rfd, 42, Readable))

	events, err := p.Wait(0)
	require.NoError(t, err)
	require.Len(t, events, 0)

	_, err = unix.Write(wfd, []byte("foo"))
	require.NoError(t, err)

	events, err = p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, uint64(42), events[0].Token())
	require.True(t, events[0].Readable())
	require.False(t, events[0].Writable())
}

func TestPollerReregister(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	rfd, wfd := newPipe(t)
	// A pipe with free space is always writable.
	require.NoError(t, p.Register(wfd, 1, Readable))
	events, err := p.Wait(0)
	require.NoError(t, err)
	require.Len(t, events, 0)

	require.NoError(t, p.Reregister(wfd, 2, Writable))
	events, err = p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, uint64(2), events[0].Token())
	require.True(t, events[0].Writable())

	require.NoError(t, p.Deregister(wfd))
	events, err = p.Wait(0)
	require.NoError(t, err)
	require.Len(t, events, 0)

	require.Error(t, p.Reregister(rfd, 3, Readable))
}

func TestPollerTokenRoundTrip(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	for _, token := range []uint64{0, 1, math.MaxUint32, math.MaxUint32 + 1, 0xdeadbeefcafebabe, math.MaxUint64} {
		_, wfd := newPipe(t)
		require.NoError(t, p.Register(wfd, token, Writable))
		events, err := p.Wait(1000)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, token, events[0].Token())
		require.NoError(t, p.Deregister(wfd))
	}
}

func TestPollerHangup(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	rfd, wfd := newPipe(t)
	require.NoError(t, p.Register(rfd, 7, Readable))
	require.NoError(t, unix.Close(wfd))

	events, err := p.Wait(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Closed())
}

func TestPollerRegisterInvalidFd(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()
	require.Error(t, p.Register(-1, 1, Readable))
}

func TestNewPollerInvalidCapacity(t *testing.T) {
	_, err := NewPoller(0)
	require.Error(t, err)
}
