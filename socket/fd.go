// File: socket/fd.go
// Author: momentics <momentics@gmail.com>
//
// Low-level descriptor creation shared by all three Socket variants:
// non-blocking, close-on-exec, with the SO_REUSEADDR/SO_REUSEPORT/buffer
// knobs from Options applied at creation time.
package socket

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/solidframe-go/api"
)

// Options mirrors the handful of reactor.Config socket knobs a Socket
// constructor needs, so package socket does not import package reactor.
type Options struct {
	ReuseAddr bool
	ReusePort bool
	RecvBuf   int
	SendBuf   int
}

func newNonblockingSocket(domain, typ, proto int, opts Options) (int, error) {
	fd, err := unix.Socket(domain, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return -1, api.WrapError(api.ErrCodeTransportError, "socket: create failed", err)
	}
	if opts.ReuseAddr {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}
	if opts.ReusePort {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	}
	if opts.RecvBuf > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.RecvBuf)
	}
	if opts.SendBuf > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SendBuf)
	}
	return fd, nil
}

func closeFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}
