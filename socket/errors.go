// File: socket/errors.go
// Author: momentics <momentics@gmail.com>
//
// Error classification (spec §4.2 "distinguishes transient ... from
// terminal"). Transient errors mean "try again on the next readiness
// event"; everything else is terminal and surfaces as api.ErrCodeTransportError
// or a more specific code.
package socket

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isTransient reports whether err is an EAGAIN/EWOULDBLOCK/EINTR-equivalent
// that the caller should simply retry once the fd is ready again.
func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) || errors.Is(err, unix.EINPROGRESS)
}
