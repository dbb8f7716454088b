// File: socket/doc.go
// Author: momentics <momentics@gmail.com>

// Package socket implements the non-blocking Socket variants specified in
// spec.md §3 "Socket" and §4.2 (component C2): Acceptor, Channel, and
// Datagram, each wrapping a raw non-blocking OS descriptor with at-most-one-
// pending-operation-per-direction bookkeeping. Sockets are constructed
// directly over golang.org/x/sys/unix syscalls rather than net.Conn, since
// the reactor (package reactor) drives readiness for raw file descriptors
// registered with its own epoll instance — grounded on the same x/sys/unix
// dependency the teacher's reactor_linux.go already uses for poll wiring.
package socket
