package aio_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/aio"
	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/reactor"
	"github.com/momentics/solidframe-go/socket"
)

func startReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r, err := reactor.New(reactor.Config{})
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run()
	}()
	t.Cleanup(func() {
		r.Stop()
		<-done
		_ = r.Close()
	})
	return r
}

// TestEchoChannel is spec §8 scenario 1: a client connects to a listener,
// sends a message, the accepted side echoes it back, and the client
// observes the same bytes.
func TestEchoChannel(t *testing.T) {
	r := startReactor(t)

	addr, err := socket.ResolveTCP("127.0.0.1:0")
	require.NoError(t, err)
	acc, err := socket.ListenTCP(addr, 0, socket.Options{})
	require.NoError(t, err)
	realAddr, err := acc.Addr()
	require.NoError(t, err)

	ln, err := aio.NewListener(r, acc, socket.Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	var serverStream *aio.Stream
	require.NoError(t, ln.Accept(func(ctx api.Context, ch *socket.Channel, err error) {
		defer wg.Done()
		require.NoError(t, err)
		serverStream, err = aio.NewStream(r)
		require.NoError(t, err)
		serverStream.Attach(ch)

		buf := make([]byte, 64)
		require.NoError(t, serverStream.PostRecvSome(buf, func(ctx api.Context, n int, err error) {
			require.NoError(t, err)
			require.NoError(t, serverStream.PostSendAll(buf[:n], func(ctx api.Context, err error) {
				require.NoError(t, err)
			}))
		}))
	}))

	clientStream, err := aio.NewStream(r)
	require.NoError(t, err)
	require.NoError(t, clientStream.Connect(realAddr, socket.Options{}, func(ctx api.Context, err error) {
		require.NoError(t, err)
		require.NoError(t, clientStream.PostSendAll([]byte("ping"), func(ctx api.Context, err error) {
			require.NoError(t, err)
		}))
		recvBuf := make([]byte, 64)
		require.NoError(t, clientStream.PostRecvSome(recvBuf, func(ctx api.Context, n int, err error) {
			defer wg.Done()
			require.NoError(t, err)
			require.Equal(t, "ping", string(recvBuf[:n]))
		}))
	}))

	waitTimeout(t, &wg, 2*time.Second)
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for async completion")
	}
}

// TestRecvWithTimeout is spec §8 scenario 2: a Timer races a recv; if the
// timer fires first, the recv is canceled by closing the stream.
func TestRecvWithTimeout(t *testing.T) {
	r := startReactor(t)

	addr, err := socket.ResolveTCP("127.0.0.1:0")
	require.NoError(t, err)
	acc, err := socket.ListenTCP(addr, 0, socket.Options{})
	require.NoError(t, err)
	realAddr, err := acc.Addr()
	require.NoError(t, err)
	ln, err := aio.NewListener(r, acc, socket.Options{})
	require.NoError(t, err)

	accepted := make(chan struct{})
	require.NoError(t, ln.Accept(func(ctx api.Context, ch *socket.Channel, err error) {
		require.NoError(t, err)
		close(accepted) // never send anything: the client's recv must time out
	}))

	clientStream, err := aio.NewStream(r)
	require.NoError(t, err)

	done := make(chan string, 1)
	require.NoError(t, clientStream.Connect(realAddr, socket.Options{}, func(ctx api.Context, err error) {
		require.NoError(t, err)

		timer, terr := aio.NewTimer(r)
		require.NoError(t, terr)

		buf := make([]byte, 16)
		require.NoError(t, clientStream.PostRecvSome(buf, func(ctx api.Context, n int, err error) {
			timer.Cancel()
			select {
			case done <- "recv":
			default:
			}
		}))

		require.NoError(t, timer.WaitFor(100*time.Millisecond, func(ctx api.Context) {
			// Record the timeout before Close: Close runs the pending recv
			// callback (with ErrCanceled) synchronously.
			select {
			case done <- "timeout":
			default:
			}
			_ = clientStream.Close(ctx)
		}))
	}))

	<-accepted
	select {
	case result := <-done:
		require.Equal(t, "timeout", result)
	case <-time.After(2 * time.Second):
		t.Fatal("neither recv nor timeout fired")
	}
}

// TestSendAllCancellationRace is spec §8 scenario 3: posting a send_all
// immediately followed by closing the socket must fire the send callback
// exactly once, either Ready or Canceled, never both and never neither.
func TestSendAllCancellationRace(t *testing.T) {
	r := startReactor(t)

	addr, err := socket.ResolveTCP("127.0.0.1:0")
	require.NoError(t, err)
	acc, err := socket.ListenTCP(addr, 0, socket.Options{})
	require.NoError(t, err)
	realAddr, err := acc.Addr()
	require.NoError(t, err)
	ln, err := aio.NewListener(r, acc, socket.Options{})
	require.NoError(t, err)

	require.NoError(t, ln.Accept(func(ctx api.Context, ch *socket.Channel, err error) {
		require.NoError(t, err)
		// Drain whatever arrives so a successful send has somewhere to go;
		// intentionally never closes server-side to isolate the client race.
		srv, serr := aio.NewStream(r)
		require.NoError(t, serr)
		srv.Attach(ch)
		buf := make([]byte, 16)
		_ = srv.PostRecvSome(buf, func(api.Context, int, error) {})
	}))

	clientStream, err := aio.NewStream(r)
	require.NoError(t, err)

	var fireCount int32
	done := make(chan struct{})
	require.NoError(t, clientStream.Connect(realAddr, socket.Options{}, func(ctx api.Context, err error) {
		require.NoError(t, err)
		require.NoError(t, clientStream.PostSendAll([]byte("hello"), func(ctx api.Context, err error) {
			n := atomic.AddInt32(&fireCount, 1)
			require.Equal(t, int32(1), n, "send callback must fire exactly once")
			close(done)
		}))
		_ = clientStream.Close(ctx)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send callback never fired")
	}
}
