//go:build windows

// File: diag/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific probes, adapted from the teacher's control/platform_windows.go.
package diag

import "runtime"

// RegisterPlatformProbes installs OS-specific diagnostic probes.
func RegisterPlatformProbes(p *Probes) {
	p.Register("platform.os", func() any { return "windows" })
	p.Register("platform.cpus", func() any { return runtime.NumCPU() })
}
