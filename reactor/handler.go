// File: reactor/handler.go
// Author: momentics <momentics@gmail.com>
//
// CompletionHandler (spec §4.4, component C4): the registry entry binding an
// Object to the Reactor it runs on, carrying the fd/timer table indices and
// the currently-active callback. The original keeps an intrusive sibling
// list per Object (several completion handlers can hang off one Object);
// that is
// reproduced here as a next pointer instead of raw linked-list pointers,
// since Go GC cannot be fought with manual pointer tagging the way the
// C++ original's handler table does.
package reactor

import (
	"time"

	"github.com/momentics/solidframe-go/api"
)

// Kind distinguishes what a CompletionHandler is waiting on.
type Kind int

const (
	KindNone Kind = iota
	KindDevice
	KindTimer
)

// sentinelIndex marks "not registered in that table".
const sentinelIndex = -1

// CompletionHandler is one registered wait: at most one device (fd) wait and
// one timer wait can be live on it at a time (spec §4.4 "a handler is either
// idle, waiting on device readiness, or waiting on a timer, never both").
type CompletionHandler struct {
	owner   api.ObjectID
	reactor *Reactor

	kind       Kind
	deviceFD   int
	timerEntry *timerEntry
	want       api.InterestMask
	callback   func(ctx api.Context, disp api.Disposition)

	next *CompletionHandler // sibling link for multi-handler objects
}

// NewCompletionHandler creates a handler bound to owner on r, idle until
// WatchDevice/WatchTimer is called.
func NewCompletionHandler(r *Reactor, owner api.ObjectID) *CompletionHandler {
	return &CompletionHandler{
		owner:      owner,
		reactor:    r,
		kind:       KindNone,
		deviceFD:   sentinelIndex,
		timerEntry: nil,
	}
}

// WatchDevice arms the handler on fd for the given interest, replacing any
// prior device watch. callback fires on the next matching readiness event
// from the main loop (spec §4.6 dispatch step).
func (h *CompletionHandler) WatchDevice(fd int, want api.InterestMask, callback func(ctx api.Context, disp api.Disposition)) error {
	if h.kind == KindDevice && h.deviceFD == fd {
		if err := h.reactor.poller.Modify(fd, want); err != nil {
			return err
		}
	} else {
		h.clearDevice()
		if err := h.reactor.poller.Add(fd, want); err != nil {
			return err
		}
	}
	h.kind = KindDevice
	h.deviceFD = fd
	h.want = want
	h.callback = callback
	h.reactor.deviceHandlers[fd] = h
	return nil
}

// WatchTimer arms a one-shot timer wait for deadline, replacing any prior
// timer watch.
func (h *CompletionHandler) WatchTimer(deadline time.Time, callback func(ctx api.Context, disp api.Disposition)) {
	h.clearTimer()
	h.kind = KindTimer
	h.callback = callback
	h.timerEntry = h.reactor.timers.Add(deadline, func(ctx api.Context) {
		h.fireTimer(ctx)
	})
	h.timerEntry.handler = h
}

// fireTimer is invoked by the reactor main loop when h's registered
// timerEntry expires.
func (h *CompletionHandler) fireTimer(ctx api.Context) {
	h.timerEntry = nil
	h.kind = KindNone
	if h.callback != nil {
		cb := h.callback
		h.callback = nil
		cb(ctx, api.DispClear)
	}
}

// clearDevice unregisters any live device watch.
func (h *CompletionHandler) clearDevice() {
	if h.kind != KindDevice || h.deviceFD == sentinelIndex {
		return
	}
	delete(h.reactor.deviceHandlers, h.deviceFD)
	_ = h.reactor.poller.Remove(h.deviceFD)
	h.deviceFD = sentinelIndex
	h.kind = KindNone
}

// clearTimer cancels any live timer watch.
func (h *CompletionHandler) clearTimer() {
	if h.kind != KindTimer || h.timerEntry == nil {
		return
	}
	h.reactor.timers.Cancel(h.timerEntry)
	h.timerEntry = nil
	h.kind = KindNone
}

// Close tears down whatever this handler currently watches (spec §4.4
// "closing an Object cancels its handlers' pending waits").
func (h *CompletionHandler) Close() {
	h.clearDevice()
	h.clearTimer()
	h.callback = nil
}

// dispatch is called by the reactor main loop with the OS-reported
// readiness for this handler's fd.
func (h *CompletionHandler) dispatch(ctx api.Context, mask api.ReadinessMask) {
	if h.kind != KindDevice || h.callback == nil {
		return
	}
	disp := dispositionFromReadiness(mask, h.want)
	cb := h.callback
	h.callback = nil
	cb(ctx, disp)
}

// dispositionFromReadiness always resolves a simultaneous read+write ready
// state to DispRecvSend (recv runs first); there is no send-first variant to
// pick between.
func dispositionFromReadiness(mask api.ReadinessMask, want api.InterestMask) api.Disposition {
	if mask&api.ReadinessError != 0 {
		return api.DispError
	}
	if mask&api.ReadinessHangup != 0 {
		return api.DispHangup
	}
	canRecv := want.Readable() && mask&api.ReadinessRead != 0
	canSend := want.Writable() && mask&api.ReadinessWrite != 0
	switch {
	case canRecv && canSend:
		return api.DispRecvSend
	case canRecv:
		return api.DispRecv
	case canSend:
		return api.DispSend
	default:
		return api.DispClear
	}
}
