// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements the single-threaded cooperative event loop
// specified in spec.md §4.4–4.6: the CompletionHandler registry (C4), the
// TimerHeap (C5), and the Reactor engine itself (C6) that polls readiness,
// fires timers, drains posted events, and dispatches to completion
// handlers. Concrete OS poller backends live in poller_linux.go (epoll) and
// poller_other.go (unsupported-platform stub), following the teacher's own
// reactor_linux.go/reactor_stub.go split.
package reactor
