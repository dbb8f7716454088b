package aio_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/aio"
	"github.com/momentics/solidframe-go/api"
	"github.com/momentics/solidframe-go/socket"
)

// TestDatagramEcho is spec §8 scenario 4: a datagram socket echoes whatever
// it receives back to the sender's address.
func TestDatagramEcho(t *testing.T) {
	r := startReactor(t)

	serverAddr, err := socket.ResolveUDP("127.0.0.1:0")
	require.NoError(t, err)
	serverSock, err := socket.BindUDP(serverAddr, socket.Options{})
	require.NoError(t, err)
	serverReal, err := serverSock.Addr()
	require.NoError(t, err)
	server, err := aio.NewDatagram(r, serverSock)
	require.NoError(t, err)

	clientAddr, err := socket.ResolveUDP("127.0.0.1:0")
	require.NoError(t, err)
	clientSock, err := socket.BindUDP(clientAddr, socket.Options{})
	require.NoError(t, err)
	client, err := aio.NewDatagram(r, clientSock)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)

	serverBuf := make([]byte, 64)
	require.NoError(t, server.PostRecvFrom(serverBuf, func(ctx api.Context, n int, from *net.UDPAddr, err error) {
		require.NoError(t, err)
		require.NoError(t, server.PostSendTo(serverBuf[:n], from, func(ctx api.Context, err error) {
			require.NoError(t, err)
		}))
	}))

	clientBuf := make([]byte, 64)
	require.NoError(t, client.PostRecvFrom(clientBuf, func(ctx api.Context, n int, from *net.UDPAddr, err error) {
		defer wg.Done()
		require.NoError(t, err)
		require.Equal(t, "hello", string(clientBuf[:n]))
	}))

	require.NoError(t, client.PostSendTo([]byte("hello"), serverReal, func(ctx api.Context, err error) {
		require.NoError(t, err)
	}))

	waitTimeout(t, &wg, 2*time.Second)
}
