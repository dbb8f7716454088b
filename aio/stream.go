// File: aio/stream.go
// Author: momentics <momentics@gmail.com>
//
// Stream is the connected-byte-stream façade (spec §4.7 "Stream"): at most
// one recv continuation and one send-all continuation in flight at a time,
// built on socket.Channel for the state machine and reactor.CompletionHandler
// for readiness dispatch. Readiness sequencing follows the Disposition the
// reactor's handler computes from the socket's pending state (spec §4.6
// "Readiness dispatch to sockets"); when both directions are ready, recv
// runs before send.
package aio

import (
	"net"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
	"github.com/momentics/solidframe-go/socket"
)

// Stream wraps a connected socket.Channel with one-shot recv/send-all
// continuations.
type Stream struct {
	r  *reactor.Reactor
	id api.ObjectID
	h  *reactor.CompletionHandler
	ch *socket.Channel

	recvBuf []byte
	recvFn  func(ctx api.Context, n int, err error)

	sendBuf  []byte
	sendSent int
	sendFn   func(ctx api.Context, err error)

	connecting bool
	connectFn  func(ctx api.Context, err error)
}

// NewStream registers a new Object for the stream and returns it, unattached
// until Attach or Connect is called.
func NewStream(r *reactor.Reactor) (*Stream, error) {
	s := &Stream{r: r}
	id, err := r.Register(s)
	if err != nil {
		return nil, err
	}
	s.id = id
	s.h = r.NewHandler(id)
	return s, nil
}

// OnInit satisfies api.Object; Stream needs no deferred wiring of its own
// beyond what Connect/Attach already do on the reactor thread.
func (s *Stream) OnInit(ctx api.Context) {}

// ID returns the stream's Object id.
func (s *Stream) ID() api.ObjectID { return s.id }

// Attach binds an already-connected channel (e.g. one handed back by
// Listener.Accept) to this façade.
func (s *Stream) Attach(ch *socket.Channel) {
	s.ch = ch
}

// Connect creates the descriptor, begins a non-blocking connect, and installs
// f to fire once the connection completes or fails (spec §4.7 "connect").
func (s *Stream) Connect(addr *net.TCPAddr, opts socket.Options, f func(ctx api.Context, err error)) error {
	ch, res, err := socket.DialTCP(addr, opts)
	if err != nil {
		return err
	}
	s.ch = ch
	if res == socket.ResultOk {
		return s.postImmediate(func(ctx api.Context) { f(ctx, nil) })
	}
	s.connecting = true
	s.connectFn = f
	return s.rearm()
}

func (s *Stream) postImmediate(fn func(ctx api.Context)) error {
	return s.r.Post(s.id, fn)
}

// PostRecvSome defers delivery of the outcome through the reactor's own
// queue even when the read completes immediately, unlike RecvSome which
// reports an immediate completion inline (spec §4.7 "post_recv_some ...
// f(ctx, n_read) fires on first success/error").
func (s *Stream) PostRecvSome(buf []byte, f func(ctx api.Context, n int, err error)) error {
	if s.recvBuf != nil {
		return api.ErrOperationInProgress
	}
	res, n, err := s.ch.Recv(buf)
	switch res {
	case socket.ResultOk:
		return s.postImmediate(func(ctx api.Context) { f(ctx, n, nil) })
	case socket.ResultFail:
		return s.postImmediate(func(ctx api.Context) { f(ctx, 0, err) })
	default:
		s.recvBuf = buf
		s.recvFn = f
		return s.rearm()
	}
}

// RecvSome tries once synchronously (spec §4.7 "recv_some"). On completion
// it returns Ready(n); on would-block it installs f and returns Deferred.
func (s *Stream) RecvSome(buf []byte, f func(ctx api.Context, n int, err error)) (Outcome, int, error) {
	if s.recvBuf != nil {
		return Ready, 0, api.ErrOperationInProgress
	}
	res, n, err := s.ch.Recv(buf)
	switch res {
	case socket.ResultOk:
		return Ready, n, nil
	case socket.ResultFail:
		return Ready, 0, err
	default:
		s.recvBuf = buf
		s.recvFn = f
		if err := s.rearm(); err != nil {
			return Ready, 0, err
		}
		return Deferred, 0, nil
	}
}

// PostSendAll installs f to fire once every byte of buf has been
// acknowledged by the kernel, or on error (spec §4.7 "post_send_all").
func (s *Stream) PostSendAll(buf []byte, f func(ctx api.Context, err error)) error {
	if s.sendBuf != nil {
		return api.ErrOperationInProgress
	}
	res, _, err := s.ch.Send(buf)
	switch res {
	case socket.ResultOk:
		return s.postImmediate(func(ctx api.Context) { f(ctx, nil) })
	case socket.ResultFail:
		return s.postImmediate(func(ctx api.Context) { f(ctx, err) })
	default:
		s.sendBuf = buf
		s.sendFn = f
		return s.rearm()
	}
}

// SendAll tries once synchronously, installing a continuation for the
// remainder if any (spec §4.7 "send_all").
func (s *Stream) SendAll(buf []byte, f func(ctx api.Context, err error)) (Outcome, error) {
	if s.sendBuf != nil {
		return Ready, api.ErrOperationInProgress
	}
	res, n, err := s.ch.Send(buf)
	switch res {
	case socket.ResultOk:
		return Ready, nil
	case socket.ResultFail:
		return Ready, err
	default:
		s.sendBuf = buf
		s.sendSent = n
		s.sendFn = f
		if err := s.rearm(); err != nil {
			return Ready, err
		}
		return Deferred, nil
	}
}

func (s *Stream) interest() api.InterestMask {
	var m api.InterestMask
	if s.connecting {
		m |= api.InterestWrite
	}
	if s.recvBuf != nil {
		m |= api.InterestRead
	}
	if s.sendBuf != nil {
		m |= api.InterestWrite
	}
	return m
}

func (s *Stream) rearm() error {
	want := s.interest()
	if want == api.InterestNone {
		return nil
	}
	return s.h.WatchDevice(s.ch.FD(), want, s.onReady)
}

// onReady is the CompletionHandler callback, sequencing recv/send per the
// Disposition the handler derived from OS readiness (spec §4.6).
func (s *Stream) onReady(ctx api.Context, disp api.Disposition) {
	if s.connecting {
		s.finishConnect(ctx)
		return
	}

	switch disp {
	case api.DispRecvSend:
		s.doRecv(ctx)
		s.doSend(ctx)
	case api.DispRecv:
		s.doRecv(ctx)
	case api.DispSend:
		s.doSend(ctx)
	case api.DispHangup, api.DispError:
		s.failAll(ctx, api.ErrPeerClosed)
		return
	}

	if err := s.rearm(); err != nil {
		s.failAll(ctx, err)
	}
}

func (s *Stream) finishConnect(ctx api.Context) {
	res, err := s.ch.FinishConnect()
	s.connecting = false
	fn := s.connectFn
	s.connectFn = nil
	if res != socket.ResultOk {
		if fn != nil {
			fn(ctx, err)
		}
		return
	}
	if fn != nil {
		fn(ctx, nil)
	}
	if rerr := s.rearm(); rerr != nil {
		s.failAll(ctx, rerr)
	}
}

func (s *Stream) doRecv(ctx api.Context) {
	if s.recvBuf == nil {
		return
	}
	done, n, err := s.ch.DoRecv()
	if !done && err == nil {
		return // partial/transient, keep waiting
	}
	fn := s.recvFn
	s.recvBuf, s.recvFn = nil, nil
	if fn != nil {
		fn(ctx, n, err)
	}
}

func (s *Stream) doSend(ctx api.Context) {
	if s.sendBuf == nil {
		return
	}
	done, n, err := s.ch.DoSend()
	s.sendSent += n
	if !done && err == nil {
		return
	}
	fn := s.sendFn
	s.sendBuf, s.sendFn = nil, nil
	if fn != nil {
		fn(ctx, err)
	}
}

// failAll delivers a terminal error to every pending continuation (spec §5
// "closing ... all pending continuations are invoked once with a canceled
// error").
func (s *Stream) failAll(ctx api.Context, err error) {
	if s.connectFn != nil {
		fn := s.connectFn
		s.connectFn, s.connecting = nil, false
		fn(ctx, err)
	}
	if s.recvFn != nil {
		fn := s.recvFn
		s.recvBuf, s.recvFn = nil, nil
		fn(ctx, 0, err)
	}
	if s.sendFn != nil {
		fn := s.sendFn
		s.sendBuf, s.sendFn = nil, nil
		fn(ctx, err)
	}
}

// Close cancels any pending continuations with api.ErrCanceled and releases
// the underlying descriptor (spec §5 "Per-socket cancel is expressed as
// closing the socket").
func (s *Stream) Close(ctx api.Context) error {
	s.h.Close()
	s.failAll(ctx, api.ErrCanceled)
	if s.ch != nil {
		return s.ch.Close()
	}
	return nil
}
