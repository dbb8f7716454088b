// File: socket/acceptor.go
// Author: momentics <momentics@gmail.com>
//
// Acceptor is the listening-socket Socket variant (spec §3, §4.2): binds and
// listens, then accepts new connections non-blockingly, at most one pending
// accept at a time.
package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

// Acceptor wraps a listening descriptor.
type Acceptor struct {
	fd      int
	pending bool
}

// ListenTCP creates, binds, and listens on addr (spec §4.2 "create" +
// implicit bind/listen for the Acceptor role).
func ListenTCP(addr *net.TCPAddr, backlog int, opts Options) (*Acceptor, error) {
	fd, err := newNonblockingSocket(unix.AF_INET, unix.SOCK_STREAM, 0, opts)
	if err != nil {
		return nil, err
	}
	sa, err := tcpToSockaddr(addr)
	if err != nil {
		_ = closeFD(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = closeFD(fd)
		return nil, api.WrapError(api.ErrCodeTransportError, "socket: bind failed", err)
	}
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = closeFD(fd)
		return nil, api.WrapError(api.ErrCodeTransportError, "socket: listen failed", err)
	}
	return &Acceptor{fd: fd}, nil
}

// FD exposes the raw descriptor for reactor registration.
func (a *Acceptor) FD() int { return a.fd }

// Addr returns the descriptor's bound local address, useful when ListenTCP
// was given port 0 and the OS picked an ephemeral one.
func (a *Acceptor) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(a.fd)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeTransportError, "socket: getsockname failed", err)
	}
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, s.Addr[:])
		return &net.TCPAddr{IP: ip, Port: s.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, s.Addr[:])
		return &net.TCPAddr{IP: ip, Port: s.Port}, nil
	default:
		return nil, api.NewError(api.ErrCodeAddressError, "socket: unrecognized sockaddr from getsockname")
	}
}

// IORequest is always read-interest while idle; an accept in progress still
// wants read readiness (spec §4.2 "io_request").
func (a *Acceptor) IORequest() api.InterestMask { return api.InterestRead }

// Accept tries to accept immediately (spec §4.2 "accept(out_socket)").
func (a *Acceptor) Accept(opts Options) (Result, *Channel, error) {
	fd, _, err := unix.Accept4(a.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if isTransient(err) {
			a.pending = true
			return ResultPending, nil, nil
		}
		return ResultFail, nil, api.WrapError(api.ErrCodeTransportError, "socket: accept failed", err)
	}
	a.pending = false
	if opts.RecvBuf > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.RecvBuf)
	}
	if opts.SendBuf > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SendBuf)
	}
	return ResultOk, NewChannel(fd), nil
}

// DoAccept is the completion entry point invoked by the reactor when
// readability fires on a pending accept.
func (a *Acceptor) DoAccept(opts Options) (done bool, ch *Channel, err error) {
	res, c, err := a.Accept(opts)
	switch res {
	case ResultOk:
		return true, c, nil
	case ResultPending:
		return false, nil, nil
	default:
		return false, nil, err
	}
}

// Close releases the descriptor.
func (a *Acceptor) Close() error {
	return closeFD(a.fd)
}
