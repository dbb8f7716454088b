// File: aio/timer.go
// Author: momentics <momentics@gmail.com>
//
// Timer is the deadline façade (spec §4.7 "Timer ... wait_for/wait_until ...
// cancel(ctx) removes the heap entry and clears the callback"). It is built
// directly on reactor.CompletionHandler.WatchTimer rather than a socket, so
// it has no device-readiness component at all.
package aio

import (
	"time"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
)

// Timer wraps a single one-shot TimerHeap entry.
type Timer struct {
	r  *reactor.Reactor
	id api.ObjectID
	h  *reactor.CompletionHandler

	pending bool
}

// NewTimer registers a new Object for the timer.
func NewTimer(r *reactor.Reactor) (*Timer, error) {
	t := &Timer{r: r}
	id, err := r.Register(t)
	if err != nil {
		return nil, err
	}
	t.id = id
	t.h = r.NewHandler(id)
	return t, nil
}

// OnInit satisfies api.Object.
func (t *Timer) OnInit(ctx api.Context) {}

// ID returns the timer's Object id.
func (t *Timer) ID() api.ObjectID { return t.id }

// WaitFor arms the timer to fire after d elapses (spec §4.7 "wait_for").
func (t *Timer) WaitFor(d time.Duration, f func(ctx api.Context)) error {
	return t.WaitUntil(time.Now().Add(d), f)
}

// WaitUntil arms the timer to fire at deadline (spec §4.7 "wait_until").
func (t *Timer) WaitUntil(deadline time.Time, f func(ctx api.Context)) error {
	if t.pending {
		return api.ErrOperationInProgress
	}
	t.pending = true
	t.h.WatchTimer(deadline, func(ctx api.Context, _ api.Disposition) {
		t.pending = false
		f(ctx)
	})
	return nil
}

// Cancel removes the pending timer entry, if any (spec §4.7 "cancel(ctx)
// removes the heap entry and clears the callback"); immediate and sound
// (spec §5): the callback will never fire after Cancel returns from the
// reactor thread.
func (t *Timer) Cancel() {
	if !t.pending {
		return
	}
	t.pending = false
	t.h.Close()
}
