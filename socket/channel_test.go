package socket_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/socket"
)

func mustListener(t *testing.T) *socket.Acceptor {
	t.Helper()
	addr, err := socket.ResolveTCP("127.0.0.1:0")
	require.NoError(t, err)
	ln, err := socket.ListenTCP(addr, 0, socket.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func localAddr(t *testing.T, ln *socket.Acceptor) *net.TCPAddr {
	t.Helper()
	sa, err := ln.Addr()
	require.NoError(t, err)
	return sa
}

func TestChannelDialAcceptSendRecv(t *testing.T) {
	ln := mustListener(t)
	addr := localAddr(t, ln)

	client, res, err := socket.DialTCP(addr, socket.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.Contains(t, []socket.Result{socket.ResultOk, socket.ResultPending}, res)

	var server *socket.Channel
	require.Eventually(t, func() bool {
		res, c, err := ln.Accept(socket.Options{})
		require.NoError(t, err)
		if res == socket.ResultOk {
			server = c
			return true
		}
		return false
	}, time.Second, time.Millisecond)
	t.Cleanup(func() { _ = server.Close() })

	if client.State() == api.StatePendingConnect {
		require.Eventually(t, func() bool {
			res, err := client.FinishConnect()
			require.NoError(t, err)
			return res == socket.ResultOk
		}, time.Second, time.Millisecond)
	}

	res, n, err := client.Send([]byte("ping"))
	require.NoError(t, err)
	require.Contains(t, []socket.Result{socket.ResultOk, socket.ResultPending}, res)
	if res == socket.ResultPending {
		require.Eventually(t, func() bool {
			done, _, err := client.DoSend()
			require.NoError(t, err)
			return done
		}, time.Second, time.Millisecond)
	} else {
		require.Equal(t, 4, n)
	}

	buf := make([]byte, 16)
	require.Eventually(t, func() bool {
		res, n, err := server.Recv(buf)
		if res == socket.ResultPending {
			return false
		}
		require.NoError(t, err)
		require.Equal(t, "ping", string(buf[:n]))
		return true
	}, time.Second, time.Millisecond)
}

func TestChannelRecvAfterPeerCloseIsFail(t *testing.T) {
	ln := mustListener(t)
	addr := localAddr(t, ln)

	client, _, err := socket.DialTCP(addr, socket.Options{})
	require.NoError(t, err)

	var server *socket.Channel
	require.Eventually(t, func() bool {
		res, c, err := ln.Accept(socket.Options{})
		require.NoError(t, err)
		if res == socket.ResultOk {
			server = c
			return true
		}
		return false
	}, time.Second, time.Millisecond)

	require.NoError(t, server.Close())

	require.Eventually(t, func() bool {
		res, _, err := client.Recv(make([]byte, 16))
		if res == socket.ResultPending {
			return false
		}
		require.Equal(t, socket.ResultFail, res)
		require.ErrorIs(t, err, api.ErrPeerClosed)
		return true
	}, time.Second, time.Millisecond)

	_ = client.Close()
}

func TestChannelZeroLengthRecvAndSendAreNoOpReady(t *testing.T) {
	ln := mustListener(t)
	addr := localAddr(t, ln)

	client, _, err := socket.DialTCP(addr, socket.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var server *socket.Channel
	require.Eventually(t, func() bool {
		res, c, err := ln.Accept(socket.Options{})
		require.NoError(t, err)
		if res == socket.ResultOk {
			server = c
			return true
		}
		return false
	}, time.Second, time.Millisecond)
	t.Cleanup(func() { _ = server.Close() })

	res, n, err := client.Recv(nil)
	require.NoError(t, err)
	require.Equal(t, socket.ResultOk, res)
	require.Zero(t, n)

	res, n, err = client.Send(nil)
	require.NoError(t, err)
	require.Equal(t, socket.ResultOk, res)
	require.Zero(t, n)

	// the peer never saw any bytes and the channel is still usable.
	res, n, err = client.Send([]byte("ping"))
	require.NoError(t, err)
	require.Contains(t, []socket.Result{socket.ResultOk, socket.ResultPending}, res)
	if res == socket.ResultPending {
		require.Eventually(t, func() bool {
			done, _, err := client.DoSend()
			require.NoError(t, err)
			return done
		}, time.Second, time.Millisecond)
	} else {
		require.Equal(t, 4, n)
	}
}
