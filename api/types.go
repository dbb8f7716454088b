// File: api/types.go
// Package api: shared bitmask and enum types threaded between the reactor,
// socket, and secure-transport layers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// InterestMask is the OS-level readiness a Socket wants the poller to watch
// for (spec §3 Socket invariants, §4.2 io_request).
type InterestMask uint8

const (
	InterestNone InterestMask = 0
	InterestRead InterestMask = 1 << iota
	InterestWrite
)

func (m InterestMask) Readable() bool { return m&InterestRead != 0 }
func (m InterestMask) Writable() bool { return m&InterestWrite != 0 }

// ReadinessMask is what the OS poller reports back for a registered fd.
type ReadinessMask uint8

const (
	ReadinessNone ReadinessMask = 0
	ReadinessRead ReadinessMask = 1 << iota
	ReadinessWrite
	ReadinessHangup
	ReadinessError
)

// WantEvents is the SecureTransport's application-level/OS-level readiness
// translation table (spec §4.3). A TLS operation that application code
// thinks of as "recv" may in fact be blocked on OS writability mid
// handshake/renegotiation; these bits say which.
type WantEvents uint16

const (
	WantNone WantEvents = 0

	WantReadOnAccept WantEvents = 1 << iota
	WantWriteOnAccept
	WantReadOnConnect
	WantWriteOnConnect
	WantReadOnRead
	WantWriteOnRead
	WantReadOnWrite
	WantWriteOnWrite
)

// Interest collapses a WantEvents set into the OS-level InterestMask the
// socket must register for, independent of which application-level op is
// actually waiting (spec §4.2 io_request: "plus bits from secure want
// translation").
func (w WantEvents) Interest() InterestMask {
	var m InterestMask
	if w&(WantReadOnAccept|WantReadOnConnect|WantReadOnRead|WantReadOnWrite) != 0 {
		m |= InterestRead
	}
	if w&(WantWriteOnAccept|WantWriteOnConnect|WantWriteOnRead|WantWriteOnWrite) != 0 {
		m |= InterestWrite
	}
	return m
}

// SocketRole fixes the variant a Socket was constructed as (spec §3).
type SocketRole int

const (
	RoleAcceptor SocketRole = iota
	RoleChannel
	RoleDatagram
)

func (r SocketRole) String() string {
	switch r {
	case RoleAcceptor:
		return "acceptor"
	case RoleChannel:
		return "channel"
	case RoleDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// Disposition is what a Socket's completion entry points (do_send/do_recv)
// or readiness classifier return to the reactor dispatch (spec §4.2, §4.6).
// When both directions are ready at once, dispatch always drains recv before
// send (DispRecvSend); there is no separate send-first variant since nothing
// in a Stream's or Datagram's completion depends on which order the two
// independent operations run in.
type Disposition int

const (
	DispClear Disposition = iota
	DispRecv
	DispSend
	DispRecvSend
	DispHangup
	DispError
)

// ChannelState is the Channel socket state machine (spec §4.2).
type ChannelState int

const (
	StateIdle ChannelState = iota
	StatePendingConnect
	StateConnected
	StatePendingSend
	StatePendingRecv
	StatePendingBoth
	StateClosed
)
