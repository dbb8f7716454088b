package socket_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/socket"
)

func TestDatagramSendToRecvFromRoundTrip(t *testing.T) {
	serverAddr, err := socket.ResolveUDP("127.0.0.1:0")
	require.NoError(t, err)
	server, err := socket.BindUDP(serverAddr, socket.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	clientAddr, err := socket.ResolveUDP("127.0.0.1:0")
	require.NoError(t, err)
	client, err := socket.BindUDP(clientAddr, socket.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	serverReal, err := server.Addr()
	require.NoError(t, err)

	res, n, err := client.SendTo([]byte("hello"), serverReal)
	require.NoError(t, err)
	if res == socket.ResultPending {
		require.Eventually(t, func() bool {
			done, _, err := client.DoSend()
			require.NoError(t, err)
			return done
		}, time.Second, time.Millisecond)
	} else {
		require.Equal(t, 5, n)
	}

	buf := make([]byte, 16)
	require.Eventually(t, func() bool {
		res, n, from, err := server.RecvFrom(buf)
		if res == socket.ResultPending {
			return false
		}
		require.NoError(t, err)
		require.Equal(t, "hello", string(buf[:n]))
		require.NotNil(t, from)
		return true
	}, time.Second, time.Millisecond)
}
