//go:build !linux

// File: reactor/poller_other.go
// Author: momentics <momentics@gmail.com>
//
// Placeholder for unsupported platforms, mirroring the teacher's own
// reactor_stub.go pattern: the core builds everywhere, but only runs where a
// real osPoller backend exists.
package reactor

import "github.com/momentics/solidframe-go/api"

func newOSPoller() (osPoller, error) {
	return nil, api.ErrNotSupported
}
