// File: secure/transport.go
// Author: momentics <momentics@gmail.com>
//
// Package secure implements SecureTransport (spec §4.3, component C3): an
// optional interposer between a Socket and the reactor, translating TLS's
// want-read/want-write needs into the api.WantEvents bits the Socket merges
// into its own io_request() interest mask.
//
// Go's crypto/tls.Conn is built around a blocking net.Conn; there is no
// public non-blocking BIO-style API the way OpenSSL exposes one, which is
// what the original component was modeled on. This implementation bridges
// that gap with memConn, a net.Conn adapter over the same raw non-blocking
// descriptor the reactor already polls: reads/writes that would block
// return a sentinel error tls.Conn's handshake state machine treats as
// "try again", letting WantEvents classify which direction is actually
// stalled instead of crypto/tls blocking the reactor thread outright.
package secure

import (
	"crypto/tls"
	"errors"
	"io"
	"net"

	"github.com/momentics/solidframe-go/api"
)

// Transport is the SecureTransport contract (spec §4.3).
type Transport interface {
	Attach(fd int) error
	Send(buf []byte) (int, error)
	Recv(buf []byte) (int, error)
	WantEvents() api.WantEvents
	SecureAccept() (Result, error)
	SecureConnect() (Result, error)
	Close() error
}

// Result mirrors socket.Result's three-way outcome for multi-step
// handshakes (spec §4.3 "secure_accept()/secure_connect() ... Ok | Pending |
// Fail").
type Result int

const (
	ResultOk Result = iota
	ResultPending
	ResultFail
)

// errWouldBlock is what memConn's Read/Write return instead of blocking; it
// is never exposed outside this package.
var errWouldBlock = errors.New("secure: would block")

// TLSTransport is the crypto/tls-backed Transport implementation.
type TLSTransport struct {
	conn   *memConn
	tls    *tls.Conn
	config *tls.Config
	server bool

	lastWant api.WantEvents
}

// NewServer returns a TLSTransport that will perform the server side of the
// handshake once Attach+SecureAccept are called.
func NewServer(cfg *tls.Config) *TLSTransport {
	return &TLSTransport{config: cfg, server: true}
}

// NewClient returns a TLSTransport that will perform the client side of the
// handshake once Attach+SecureConnect are called.
func NewClient(cfg *tls.Config) *TLSTransport {
	return &TLSTransport{config: cfg, server: false}
}

// Attach binds the transport to a raw non-blocking descriptor (spec §4.3
// "attach(descriptor)").
func (t *TLSTransport) Attach(fd int) error {
	t.conn = newMemConn(fd)
	if t.server {
		t.tls = tls.Server(t.conn, t.config)
	} else {
		t.tls = tls.Client(t.conn, t.config)
	}
	return nil
}

func (t *TLSTransport) classify(err error) (int, api.WantEvents) {
	if err == nil {
		return 0, api.WantNone
	}
	if errors.Is(err, errWouldBlock) {
		if t.conn.lastWantWrite {
			return -1, api.WantWriteOnRead | api.WantWriteOnWrite
		}
		return -1, api.WantReadOnRead | api.WantReadOnWrite
	}
	if errors.Is(err, io.EOF) {
		return 0, api.WantNone
	}
	return -1, api.WantNone
}

// Send writes buf through the TLS layer (spec §4.3 "send(buf,len) -> int").
func (t *TLSTransport) Send(buf []byte) (int, error) {
	n, err := t.tls.Write(buf)
	if err != nil {
		ret, want := t.classify(err)
		t.lastWant = want
		if ret < 0 && errors.Is(err, errWouldBlock) {
			return -1, nil
		}
		return 0, api.WrapError(api.ErrCodeTransportError, "secure: tls write failed", err)
	}
	t.lastWant = api.WantNone
	return n, nil
}

// Recv reads through the TLS layer (spec §4.3 "recv(buf,cap) -> int").
func (t *TLSTransport) Recv(buf []byte) (int, error) {
	n, err := t.tls.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		ret, want := t.classify(err)
		t.lastWant = want
		if ret < 0 && errors.Is(err, errWouldBlock) {
			return -1, nil
		}
		return 0, api.WrapError(api.ErrCodeTransportError, "secure: tls read failed", err)
	}
	t.lastWant = api.WantNone
	return n, nil
}

// WantEvents reports which OS-level readiness the last stalled operation is
// actually waiting on (spec §4.3).
func (t *TLSTransport) WantEvents() api.WantEvents { return t.lastWant }

// SecureAccept drives the server handshake (spec §4.3 "secure_accept()").
func (t *TLSTransport) SecureAccept() (Result, error) {
	return t.handshake(api.WantReadOnAccept, api.WantWriteOnAccept)
}

// SecureConnect drives the client handshake (spec §4.3 "secure_connect()").
func (t *TLSTransport) SecureConnect() (Result, error) {
	return t.handshake(api.WantReadOnConnect, api.WantWriteOnConnect)
}

func (t *TLSTransport) handshake(onRead, onWrite api.WantEvents) (Result, error) {
	err := t.tls.Handshake()
	if err == nil {
		t.lastWant = api.WantNone
		return ResultOk, nil
	}
	if errors.Is(err, errWouldBlock) {
		if t.conn.lastWantWrite {
			t.lastWant = onWrite
		} else {
			t.lastWant = onRead
		}
		return ResultPending, nil
	}
	return ResultFail, api.WrapError(api.ErrCodeTransportError, "secure: handshake failed", err)
}

// Close tears down the TLS layer.
func (t *TLSTransport) Close() error {
	if t.tls == nil {
		return nil
	}
	return t.tls.Close()
}

var _ net.Conn = (*memConn)(nil)
