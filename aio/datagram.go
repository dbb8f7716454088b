// File: aio/datagram.go
// Author: momentics <momentics@gmail.com>
//
// Datagram is the connectionless façade (spec §4.7 "Datagram"). It offers
// PostRecvFrom, RecvFrom and PostSendTo; there is no try-once SendTo.
package aio

import (
	"net"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
	"github.com/momentics/solidframe-go/socket"
)

// Datagram wraps a bound socket.Datagram with one-shot recv-from/send-to
// continuations.
type Datagram struct {
	r  *reactor.Reactor
	id api.ObjectID
	h  *reactor.CompletionHandler
	d  *socket.Datagram

	recvBuf []byte
	recvFn  func(ctx api.Context, n int, from *net.UDPAddr, err error)

	sendBuf  []byte
	sendAddr *net.UDPAddr
	sendFn   func(ctx api.Context, err error)
}

// NewDatagram registers a new Object and binds d to it.
func NewDatagram(r *reactor.Reactor, d *socket.Datagram) (*Datagram, error) {
	g := &Datagram{r: r, d: d}
	id, err := r.Register(g)
	if err != nil {
		return nil, err
	}
	g.id = id
	g.h = r.NewHandler(id)
	return g, nil
}

// OnInit satisfies api.Object.
func (g *Datagram) OnInit(ctx api.Context) {}

// ID returns the datagram's Object id.
func (g *Datagram) ID() api.ObjectID { return g.id }

// PostRecvFrom defers delivery of the outcome through the reactor's queue
// even when the read completes immediately (spec §4.7 "post_recv_from").
func (g *Datagram) PostRecvFrom(buf []byte, f func(ctx api.Context, n int, from *net.UDPAddr, err error)) error {
	if g.recvBuf != nil {
		return api.ErrOperationInProgress
	}
	res, n, from, err := g.d.RecvFrom(buf)
	switch res {
	case socket.ResultOk:
		return g.r.Post(g.id, func(ctx api.Context) { f(ctx, n, from, nil) })
	case socket.ResultFail:
		return g.r.Post(g.id, func(ctx api.Context) { f(ctx, 0, nil, err) })
	default:
		g.recvBuf = buf
		g.recvFn = f
		return g.rearm()
	}
}

// RecvFrom tries once synchronously.
func (g *Datagram) RecvFrom(buf []byte, f func(ctx api.Context, n int, from *net.UDPAddr, err error)) (Outcome, int, *net.UDPAddr, error) {
	if g.recvBuf != nil {
		return Ready, 0, nil, api.ErrOperationInProgress
	}
	res, n, from, err := g.d.RecvFrom(buf)
	switch res {
	case socket.ResultOk:
		return Ready, n, from, nil
	case socket.ResultFail:
		return Ready, 0, nil, err
	default:
		g.recvBuf = buf
		g.recvFn = f
		if err := g.rearm(); err != nil {
			return Ready, 0, nil, err
		}
		return Deferred, 0, nil, nil
	}
}

// PostSendTo always defers to the reactor.
func (g *Datagram) PostSendTo(buf []byte, to *net.UDPAddr, f func(ctx api.Context, err error)) error {
	if g.sendBuf != nil {
		return api.ErrOperationInProgress
	}
	res, _, err := g.d.SendTo(buf, to)
	if res == socket.ResultOk {
		return g.r.Post(g.id, func(ctx api.Context) { f(ctx, nil) })
	}
	if res == socket.ResultFail {
		return g.r.Post(g.id, func(ctx api.Context) { f(ctx, err) })
	}
	g.sendBuf = buf
	g.sendAddr = to
	g.sendFn = f
	return g.rearm()
}

func (g *Datagram) interest() api.InterestMask {
	var m api.InterestMask
	if g.recvBuf != nil {
		m |= api.InterestRead
	}
	if g.sendBuf != nil {
		m |= api.InterestWrite
	}
	return m
}

func (g *Datagram) rearm() error {
	want := g.interest()
	if want == api.InterestNone {
		return nil
	}
	return g.h.WatchDevice(g.d.FD(), want, g.onReady)
}

func (g *Datagram) onReady(ctx api.Context, disp api.Disposition) {
	switch disp {
	case api.DispRecvSend:
		g.doRecv(ctx)
		g.doSend(ctx)
	case api.DispRecv:
		g.doRecv(ctx)
	case api.DispSend:
		g.doSend(ctx)
	case api.DispHangup, api.DispError:
		g.failAll(ctx, api.ErrPeerClosed)
		return
	}
	if err := g.rearm(); err != nil {
		g.failAll(ctx, err)
	}
}

func (g *Datagram) doRecv(ctx api.Context) {
	if g.recvBuf == nil {
		return
	}
	done, n, from, err := g.d.DoRecv()
	if !done && err == nil {
		return
	}
	fn := g.recvFn
	g.recvBuf, g.recvFn = nil, nil
	if fn != nil {
		fn(ctx, n, from, err)
	}
}

func (g *Datagram) doSend(ctx api.Context) {
	if g.sendBuf == nil {
		return
	}
	done, _, err := g.d.DoSend()
	if !done && err == nil {
		return
	}
	fn := g.sendFn
	g.sendBuf, g.sendFn, g.sendAddr = nil, nil, nil
	if fn != nil {
		fn(ctx, err)
	}
}

func (g *Datagram) failAll(ctx api.Context, err error) {
	if g.recvFn != nil {
		fn := g.recvFn
		g.recvBuf, g.recvFn = nil, nil
		fn(ctx, 0, nil, err)
	}
	if g.sendFn != nil {
		fn := g.sendFn
		g.sendBuf, g.sendFn = nil, nil
		fn(ctx, err)
	}
}

// Close cancels pending continuations and releases the descriptor.
func (g *Datagram) Close(ctx api.Context) error {
	g.h.Close()
	g.failAll(ctx, api.ErrCanceled)
	return g.d.Close()
}
