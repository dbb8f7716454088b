// File: socket/datagram.go
// Author: momentics <momentics@gmail.com>
//
// Datagram is the connectionless Socket variant (spec §4.2 "send_to /
// recv_from — Datagram analogues, carrying an address").
package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

// Datagram wraps a bound UDP descriptor.
type Datagram struct {
	fd int

	pendingSendBuf  []byte
	pendingSendAddr unix.Sockaddr
	pendingRecvBuf  []byte
}

// BindUDP creates and binds a non-blocking UDP descriptor.
func BindUDP(addr *net.UDPAddr, opts Options) (*Datagram, error) {
	fd, err := newNonblockingSocket(unix.AF_INET, unix.SOCK_DGRAM, 0, opts)
	if err != nil {
		return nil, err
	}
	sa, err := udpToSockaddr(addr)
	if err != nil {
		_ = closeFD(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = closeFD(fd)
		return nil, api.WrapError(api.ErrCodeTransportError, "socket: bind(udp) failed", err)
	}
	return &Datagram{fd: fd}, nil
}

// FD exposes the raw descriptor for reactor registration.
func (d *Datagram) FD() int { return d.fd }

// Addr returns the descriptor's bound local address.
func (d *Datagram) Addr() (*net.UDPAddr, error) {
	sa, err := unix.Getsockname(d.fd)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeTransportError, "socket: getsockname(udp) failed", err)
	}
	addr := sockaddrToUDP(sa)
	if addr == nil {
		return nil, api.NewError(api.ErrCodeAddressError, "socket: unrecognized sockaddr from getsockname")
	}
	return addr, nil
}

// IORequest derives interest from pending directions.
func (d *Datagram) IORequest() api.InterestMask {
	var m api.InterestMask
	if d.pendingRecvBuf != nil {
		m |= api.InterestRead
	}
	if d.pendingSendBuf != nil {
		m |= api.InterestWrite
	}
	return m
}

// SendTo tries to send buf to addr immediately.
func (d *Datagram) SendTo(buf []byte, addr *net.UDPAddr) (Result, int, error) {
	sa, err := udpToSockaddr(addr)
	if err != nil {
		return ResultFail, 0, err
	}
	if err := unix.Sendto(d.fd, buf, 0, sa); err != nil {
		if isTransient(err) {
			d.pendingSendBuf = append(d.pendingSendBuf[:0:0], buf...)
			d.pendingSendAddr = sa
			return ResultPending, 0, nil
		}
		return ResultFail, 0, api.WrapError(api.ErrCodeTransportError, "socket: sendto failed", err)
	}
	return ResultOk, len(buf), nil
}

// RecvFrom tries to receive immediately, yielding the peer address.
func (d *Datagram) RecvFrom(buf []byte) (Result, int, *net.UDPAddr, error) {
	n, sa, err := unix.Recvfrom(d.fd, buf, 0)
	if err != nil {
		if isTransient(err) {
			d.pendingRecvBuf = buf
			return ResultPending, 0, nil, nil
		}
		return ResultFail, 0, nil, api.WrapError(api.ErrCodeTransportError, "socket: recvfrom failed", err)
	}
	return ResultOk, n, sockaddrToUDP(sa), nil
}

// DoSend is the completion entry point for a pending send_to.
func (d *Datagram) DoSend() (done bool, n int, err error) {
	if d.pendingSendBuf == nil {
		return true, 0, nil
	}
	if err := unix.Sendto(d.fd, d.pendingSendBuf, 0, d.pendingSendAddr); err != nil {
		if isTransient(err) {
			return false, 0, nil
		}
		return false, 0, api.WrapError(api.ErrCodeTransportError, "socket: do_send(udp) failed", err)
	}
	n = len(d.pendingSendBuf)
	d.pendingSendBuf = nil
	d.pendingSendAddr = nil
	return true, n, nil
}

// DoRecv is the completion entry point for a pending recv_from.
func (d *Datagram) DoRecv() (done bool, n int, from *net.UDPAddr, err error) {
	if d.pendingRecvBuf == nil {
		return true, 0, nil, nil
	}
	read, sa, err2 := unix.Recvfrom(d.fd, d.pendingRecvBuf, 0)
	if err2 != nil {
		if isTransient(err2) {
			return false, 0, nil, nil
		}
		return false, 0, nil, api.WrapError(api.ErrCodeTransportError, "socket: do_recv(udp) failed", err2)
	}
	d.pendingRecvBuf = nil
	return true, read, sockaddrToUDP(sa), nil
}

// Close releases the descriptor.
func (d *Datagram) Close() error {
	return closeFD(d.fd)
}
