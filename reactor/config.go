// File: reactor/config.go
// Author: momentics <momentics@gmail.com>
//
// Config mirrors the field naming of the teacher pack's TCPServer config
// (govoltron-voltron/adapter/tcp.go: LockOSThread, ReuseAddr/ReusePort,
// socket buffer sizing) reshaped onto a single-threaded reactor: SolidFrame
// is explicitly one reactor per OS thread (spec §1), so there is no
// Multicore/NumEventLoop knob here, but the thread-pinning and socket-option
// knobs carry over unchanged.
package reactor

import (
	"log"
	"time"
)

// Config configures one Reactor instance (SPEC_FULL §A.3).
type Config struct {
	// LockOSThread pins Run's goroutine to its OS thread for the loop's
	// entire lifetime via runtime.LockOSThread, matching the teacher's
	// LockOSThread knob. PinCPU is applied only when this is set.
	LockOSThread bool

	// MaxObjects bounds the Object slot table; Register fails with
	// ErrCapacityError once reached (spec §7). Zero means "grow
	// unbounded".
	MaxObjects int

	// ReuseAddr/ReusePort name SO_REUSEADDR/SO_REUSEPORT. The reactor does
	// not read them; sockets take these options from the socket.Options
	// passed to their constructors.
	ReuseAddr bool
	ReusePort bool

	// SocketRecvBuffer/SocketSendBuffer name SO_RCVBUF/SO_SNDBUF. The
	// reactor does not read them; socket.Options carries the buffer sizes
	// actually applied.
	SocketRecvBuffer int
	SocketSendBuffer int

	// TCPKeepAlive names a keep-alive period. Nothing in this module reads
	// it or sets SO_KEEPALIVE.
	TCPKeepAlive time.Duration

	// MaxPollEvents bounds how many readiness events Wait retrieves per
	// call to the OS poller.
	MaxPollEvents int

	// PinCPU pins the reactor's OS thread to a specific logical CPU via
	// affinity.SetAffinity once LockOSThread has taken effect. Negative
	// means "don't pin" (spec §5 "Objects are pinned to their reactor at
	// registration and never migrate" — PinCPU extends that guarantee down
	// to the OS thread itself).
	PinCPU int

	// Logger receives the reactor's own operational log lines: capacity
	// exhaustion, poller errors, and panics recovered from dispatched
	// callbacks. Defaults to log.Default() when nil.
	Logger *log.Logger
}

const defaultMaxPollEvents = 256

func (c Config) maxPollEvents() int {
	if c.MaxPollEvents > 0 {
		return c.MaxPollEvents
	}
	return defaultMaxPollEvents
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
