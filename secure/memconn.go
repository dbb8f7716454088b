// File: secure/memconn.go
// Author: momentics <momentics@gmail.com>
//
// memConn adapts a raw non-blocking descriptor to net.Conn so crypto/tls can
// drive it, translating EAGAIN into errWouldBlock instead of blocking (there
// is no non-blocking net.Conn in the standard library). lastWantWrite
// records which direction the most recent would-block was on, since
// tls.Conn itself does not expose that distinction to callers.
package secure

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

type memConn struct {
	fd            int
	lastWantWrite bool
}

func newMemConn(fd int) *memConn {
	return &memConn{fd: fd}
}

func (c *memConn) Read(b []byte) (int, error) {
	n, err := unix.Read(c.fd, b)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			c.lastWantWrite = false
			return 0, errWouldBlock
		}
		return 0, err
	}
	if n == 0 {
		return 0, net.ErrClosed
	}
	return n, nil
}

func (c *memConn) Write(b []byte) (int, error) {
	n, err := unix.Write(c.fd, b)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			c.lastWantWrite = true
			return 0, errWouldBlock
		}
		return 0, err
	}
	return n, nil
}

func (c *memConn) Close() error { return unix.Close(c.fd) }

func (c *memConn) LocalAddr() net.Addr  { return nil }
func (c *memConn) RemoteAddr() net.Addr { return nil }

// Deadlines are meaningless here: the reactor, not crypto/tls, owns timing.
func (c *memConn) SetDeadline(time.Time) error      { return nil }
func (c *memConn) SetReadDeadline(time.Time) error  { return nil }
func (c *memConn) SetWriteDeadline(time.Time) error { return nil }
