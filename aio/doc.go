// File: aio/doc.go
// Author: momentics <momentics@gmail.com>

// Package aio implements the four typed async façades specified in
// spec.md §4.7 (component C7): Stream, Datagram, Listener, Timer. Each
// wraps a socket.Channel/Acceptor/Datagram plus a reactor.CompletionHandler,
// enforcing the "at most one continuation per direction, OperationInProgress
// otherwise" rule and the Ready/Deferred return convention spec §5 requires
// of every async operation.
package aio
