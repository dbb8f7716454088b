// File: aio/listener.go
// Author: momentics <momentics@gmail.com>
//
// Listener is the accept façade (spec §4.7 "Listener ... accept(f) installs
// a one-shot completion that hands the new socket to f on acceptance").
package aio

import (
	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
	"github.com/momentics/solidframe-go/socket"
)

// Listener wraps a socket.Acceptor with a one-shot accept continuation.
type Listener struct {
	r    *reactor.Reactor
	id   api.ObjectID
	h    *reactor.CompletionHandler
	acc  *socket.Acceptor
	opts socket.Options

	acceptFn func(ctx api.Context, ch *socket.Channel, err error)
}

// NewListener registers a new Object bound to acc.
func NewListener(r *reactor.Reactor, acc *socket.Acceptor, opts socket.Options) (*Listener, error) {
	l := &Listener{r: r, acc: acc, opts: opts}
	id, err := r.Register(l)
	if err != nil {
		return nil, err
	}
	l.id = id
	l.h = r.NewHandler(id)
	return l, nil
}

// OnInit satisfies api.Object.
func (l *Listener) OnInit(ctx api.Context) {}

// ID returns the listener's Object id.
func (l *Listener) ID() api.ObjectID { return l.id }

// Accept installs f to fire with the next accepted connection (spec §4.7).
func (l *Listener) Accept(f func(ctx api.Context, ch *socket.Channel, err error)) error {
	if l.acceptFn != nil {
		return api.ErrOperationInProgress
	}
	res, ch, err := l.acc.Accept(l.opts)
	switch res {
	case socket.ResultOk:
		return l.r.Post(l.id, func(ctx api.Context) { f(ctx, ch, nil) })
	case socket.ResultFail:
		return err
	default:
		l.acceptFn = f
		return l.h.WatchDevice(l.acc.FD(), api.InterestRead, l.onReady)
	}
}

func (l *Listener) onReady(ctx api.Context, disp api.Disposition) {
	fn := l.acceptFn
	l.acceptFn = nil
	if fn == nil {
		return
	}
	if disp == api.DispHangup || disp == api.DispError {
		fn(ctx, nil, api.ErrPeerClosed)
		return
	}
	done, ch, err := l.acc.DoAccept(l.opts)
	if !done && err == nil {
		// Spurious wakeup with no connection ready yet; reinstall.
		l.acceptFn = fn
		_ = l.h.WatchDevice(l.acc.FD(), api.InterestRead, l.onReady)
		return
	}
	fn(ctx, ch, err)
}

// Close cancels any pending accept and releases the listening descriptor.
func (l *Listener) Close(ctx api.Context) error {
	l.h.Close()
	if fn := l.acceptFn; fn != nil {
		l.acceptFn = nil
		fn(ctx, nil, api.ErrCanceled)
	}
	return l.acc.Close()
}
