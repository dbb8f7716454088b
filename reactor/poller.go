// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// osPoller abstracts the OS readiness-polling mechanism (spec §4.6 main
// loop step 4). The design tolerates either edge- or level-triggered
// backends (spec §9 open question); the Linux implementation in
// poller_linux.go is level-triggered, matching the teacher's
// reactor/epoll_reactor.go.

package reactor

import (
	"time"

	"github.com/momentics/solidframe-go/api"
)

// readinessEvent is one fd's worth of OS-reported readiness.
type readinessEvent struct {
	FD   int
	Mask api.ReadinessMask
}

// osPoller is registered/driven entirely from the reactor's own goroutine,
// except Wake, which must be safe to call from any goroutine (it backs
// Reactor.Post's cross-thread wakeup).
type osPoller interface {
	Add(fd int, mask api.InterestMask) error
	Modify(fd int, mask api.InterestMask) error
	Remove(fd int) error

	// Wait blocks up to timeout (negative = block indefinitely) and fills
	// out with ready events, returning the count.
	Wait(timeout time.Duration, out []readinessEvent) (int, error)

	// Wake interrupts a concurrent Wait; safe from any goroutine.
	Wake() error

	Close() error
}
