// File: socket/channel.go
// Author: momentics <momentics@gmail.com>
//
// Channel is the stream-socket Socket variant (spec §3, §4.2): a connected
// byte stream with at most one pending send and one pending recv at a time,
// state machine Idle -> PendingConnect -> Connected <-> (PendingSend |
// PendingRecv | PendingBoth) -> Closed.
package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

// Result is the three-way outcome spec §4.2 gives every non-blocking
// operation.
type Result int

const (
	ResultOk Result = iota
	ResultPending
	ResultFail
)

// Channel wraps a connected stream descriptor.
type Channel struct {
	fd    int
	state api.ChannelState

	pendingSend []byte // remaining tail not yet flushed
	pendingRecv []byte // caller's buffer, awaiting do_recv
}

// NewChannel wraps an already-connected non-blocking fd (e.g. one handed
// back by Acceptor.Accept).
func NewChannel(fd int) *Channel {
	return &Channel{fd: fd, state: api.StateConnected}
}

// DialTCP creates a descriptor and begins a non-blocking connect (spec §4.2
// "connect(target)").
func DialTCP(target *net.TCPAddr, opts Options) (*Channel, Result, error) {
	fd, err := newNonblockingSocket(unix.AF_INET, unix.SOCK_STREAM, 0, opts)
	if err != nil {
		return nil, ResultFail, err
	}
	sa, err := tcpToSockaddr(target)
	if err != nil {
		_ = closeFD(fd)
		return nil, ResultFail, err
	}
	c := &Channel{fd: fd, state: api.StatePendingConnect}
	err = unix.Connect(fd, sa)
	if err == nil {
		c.state = api.StateConnected
		return c, ResultOk, nil
	}
	if isTransient(err) {
		// No send is parked: the PendingConnect state alone makes
		// IORequest report write interest.
		return c, ResultPending, nil
	}
	_ = closeFD(fd)
	return nil, ResultFail, api.WrapError(api.ErrCodeTransportError, "socket: connect failed", err)
}

// FD exposes the raw descriptor for reactor registration.
func (c *Channel) FD() int { return c.fd }

// State reports the current state machine position.
func (c *Channel) State() api.ChannelState { return c.state }

// FinishConnect is invoked by the owning handler once writability confirms a
// PendingConnect attempt; it checks SO_ERROR to distinguish success from a
// refused/failed connection.
func (c *Channel) FinishConnect() (Result, error) {
	errno, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return ResultFail, api.WrapError(api.ErrCodeTransportError, "socket: getsockopt(SO_ERROR) failed", err)
	}
	if errno != 0 {
		c.state = api.StateClosed
		return ResultFail, api.WrapError(api.ErrCodeTransportError, "socket: connect failed", unix.Errno(errno))
	}
	c.state = api.StateConnected
	return ResultOk, nil
}

// Send tries to write buf immediately (spec §4.2 "send"). A full write
// returns Ok; partial or would-block parks the remainder and returns
// Pending; a zero-byte write on an already-writable fd is a terminal Fail
// (peer closed).
func (c *Channel) Send(buf []byte) (Result, int, error) {
	if len(buf) == 0 {
		return ResultOk, 0, nil
	}
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		if isTransient(err) {
			c.pendingSend = append(c.pendingSend[:0:0], buf...)
			c.advanceToPending(api.StatePendingSend)
			return ResultPending, 0, nil
		}
		c.state = api.StateClosed
		return ResultFail, 0, api.WrapError(api.ErrCodeTransportError, "socket: send failed", err)
	}
	if n == 0 && len(buf) > 0 {
		c.state = api.StateClosed
		return ResultFail, 0, api.ErrPeerClosed
	}
	if n < len(buf) {
		c.pendingSend = append(c.pendingSend[:0:0], buf[n:]...)
		c.advanceToPending(api.StatePendingSend)
		return ResultPending, n, nil
	}
	return ResultOk, n, nil
}

// Recv tries to read into buf immediately (spec §4.2 "recv"). A zero-length
// buf is Ready(0) with no syscall: unix.Read(fd, nil) still returns n==0,
// which would otherwise be indistinguishable from a peer close.
func (c *Channel) Recv(buf []byte) (Result, int, error) {
	if len(buf) == 0 {
		return ResultOk, 0, nil
	}
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		if isTransient(err) {
			c.pendingRecv = buf
			c.advanceToPending(api.StatePendingRecv)
			return ResultPending, 0, nil
		}
		c.state = api.StateClosed
		return ResultFail, 0, api.WrapError(api.ErrCodeTransportError, "socket: recv failed", err)
	}
	if n == 0 {
		c.state = api.StateClosed
		return ResultFail, 0, api.ErrPeerClosed
	}
	return ResultOk, n, nil
}

func (c *Channel) advanceToPending(want api.ChannelState) {
	switch c.state {
	case api.StatePendingSend:
		if want == api.StatePendingRecv {
			c.state = api.StatePendingBoth
		}
	case api.StatePendingRecv:
		if want == api.StatePendingSend {
			c.state = api.StatePendingBoth
		}
	case api.StatePendingBoth:
		// already both
	default:
		c.state = want
	}
}

// IORequest derives the poller interest mask from pending state (spec §4.2
// "io_request() -> mask").
func (c *Channel) IORequest() api.InterestMask {
	var m api.InterestMask
	if c.state == api.StatePendingConnect {
		m |= api.InterestWrite
	}
	if len(c.pendingRecv) > 0 || c.state == api.StatePendingRecv || c.state == api.StatePendingBoth {
		m |= api.InterestRead
	}
	if len(c.pendingSend) > 0 || c.state == api.StatePendingSend || c.state == api.StatePendingBoth {
		m |= api.InterestWrite
	}
	return m
}

// DoSend is the completion entry point invoked by the reactor when
// writability fires on a pending send (spec §4.2 "do_send()"). It flushes
// the parked tail; done is true once the tail is fully flushed, and n is the
// number of bytes written by this call, on partial progress as well (done
// false, still pending).
func (c *Channel) DoSend() (done bool, n int, err error) {
	if len(c.pendingSend) == 0 {
		return true, 0, nil
	}
	written, err := unix.Write(c.fd, c.pendingSend)
	if err != nil {
		if isTransient(err) {
			return false, 0, nil
		}
		c.state = api.StateClosed
		return false, 0, api.WrapError(api.ErrCodeTransportError, "socket: do_send failed", err)
	}
	if written == 0 {
		c.state = api.StateClosed
		return false, 0, api.ErrPeerClosed
	}
	c.pendingSend = c.pendingSend[written:]
	if len(c.pendingSend) == 0 {
		c.clearPending(api.StatePendingSend)
		return true, written, nil
	}
	return false, written, nil
}

// DoRecv is the completion entry point for a pending recv (spec §4.2
// "do_recv()").
func (c *Channel) DoRecv() (done bool, n int, err error) {
	if c.pendingRecv == nil {
		return true, 0, nil
	}
	buf := c.pendingRecv
	read, err := unix.Read(c.fd, buf)
	if err != nil {
		if isTransient(err) {
			return false, 0, nil
		}
		c.state = api.StateClosed
		return false, 0, api.WrapError(api.ErrCodeTransportError, "socket: do_recv failed", err)
	}
	c.pendingRecv = nil
	if read == 0 {
		c.state = api.StateClosed
		return false, 0, api.ErrPeerClosed
	}
	c.clearPending(api.StatePendingRecv)
	return true, read, nil
}

func (c *Channel) clearPending(which api.ChannelState) {
	switch c.state {
	case api.StatePendingBoth:
		if which == api.StatePendingSend {
			c.state = api.StatePendingRecv
		} else {
			c.state = api.StatePendingSend
		}
	default:
		c.state = api.StateConnected
	}
}

// Close releases the descriptor.
func (c *Channel) Close() error {
	c.state = api.StateClosed
	return closeFD(c.fd)
}
