//go:build linux

// File: diag/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific probes, adapted from the teacher's control/platform_linux.go.
package diag

import "runtime"

// RegisterPlatformProbes installs OS-specific diagnostic probes.
func RegisterPlatformProbes(p *Probes) {
	p.Register("platform.os", func() any { return "linux" })
	p.Register("platform.cpus", func() any { return runtime.NumCPU() })
}
